package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	MediaBackendLocal    = "local"
	MediaBackendImageKit = "imagekit"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	GinMode           string
	UploadDir         string
	UploadURLPath     string
	SuperRootUserName string
	SuperRootPassword string
	SiteBaseURL       string

	MediaBackend        string
	ImageKitPublicKey   string
	ImageKitPrivateKey  string
	ImageKitURLEndpoint string
	ImageKitFolder      string
	MaxUploadBytes      int64

	SaveTimeout time.Duration
	DraftTTL    time.Duration
}

// LoadDotEnv 读取当前目录下可选的 .env 文件；已存在的环境变量优先。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load %v: %w", existing, err)
	}
	return nil
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := getEnv("PORT", "8080")

	mediaBackend := strings.ToLower(getEnv("MEDIA_BACKEND", MediaBackendLocal))
	if mediaBackend != MediaBackendImageKit {
		mediaBackend = MediaBackendLocal
	}

	return AppConfig{
		ListenAddr:        getEnv("LISTEN_ADDR", fmt.Sprintf(":%s", port)),
		Port:              port,
		DatabasePath:      getEnv("DATABASE_PATH", "blockcms.db"),
		SessionSecret:     getEnv("SESSION_SECRET", "blockcms-dev-secret"),
		GinMode:           getEnv("GIN_MODE", "release"),
		UploadDir:         getEnv("UPLOAD_DIR", "web/static/uploads"),
		UploadURLPath:     getEnv("UPLOAD_URL_PATH", "/static/uploads"),
		SuperRootUserName: getEnv("SUPER_ROOT_USER_NAME", ""),
		SuperRootPassword: getEnv("SUPER_ROOT_PASSWORD", ""),
		SiteBaseURL:       strings.TrimRight(getEnv("SITE_BASE_URL", "http://localhost:"+port), "/"),

		MediaBackend:        mediaBackend,
		ImageKitPublicKey:   getEnv("IMAGEKIT_PUBLIC_KEY", ""),
		ImageKitPrivateKey:  getEnv("IMAGEKIT_PRIVATE_KEY", ""),
		ImageKitURLEndpoint: getEnv("IMAGEKIT_URL_ENDPOINT", ""),
		ImageKitFolder:      getEnv("IMAGEKIT_FOLDER", "/cms"),
		MaxUploadBytes:      int64(getInt("MAX_UPLOAD_MB", 10)) << 20,

		SaveTimeout: getDuration("SAVE_TIMEOUT", 15*time.Second),
		DraftTTL:    getDuration("DRAFT_TTL", 12*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// getDuration 接受 Go 的时长格式（15s、2m），也接受纯数字秒数。
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}
