package handler

import (
	"errors"
	"time"

	"github.com/blockcms/internal/component"
	"github.com/blockcms/internal/editor"
	"github.com/blockcms/internal/logging"
	"github.com/blockcms/internal/render"
	"github.com/blockcms/internal/service"
	"github.com/blockcms/internal/storage"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options 处理器配置，零值使用默认值
type Options struct {
	Catalog        *component.Registry
	Store          storage.BlobStore
	ImageKit       *storage.ImageKit
	MaxUploadBytes int64
	SaveTimeout    time.Duration
	DraftTTL       time.Duration
	Logger         *zap.Logger
}

// API 封装 HTTP 处理器共享的依赖
type API struct {
	db          *gorm.DB
	catalog     *component.Registry
	renderer    *render.Renderer
	form        *editor.Form
	drafts      *editor.DraftStore
	pages       *service.PageService
	media       *service.MediaService
	settings    *service.SiteSettingService
	imagekit    *storage.ImageKit
	saveTimeout time.Duration
	maxUpload   int64
	logger      *zap.Logger
}

// NewAPI 创建处理器并初始化共享服务
func NewAPI(gdb *gorm.DB, opts Options) (*API, error) {
	if gdb == nil {
		return nil, errors.New("database not initialized")
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = component.Default()
	}
	logger := logging.OrNop(opts.Logger)

	renderer, err := render.New(catalog)
	if err != nil {
		return nil, err
	}
	form, err := editor.NewForm()
	if err != nil {
		return nil, err
	}

	saveTimeout := opts.SaveTimeout
	if saveTimeout <= 0 {
		saveTimeout = 15 * time.Second
	}
	draftTTL := opts.DraftTTL
	if draftTTL <= 0 {
		draftTTL = 12 * time.Hour
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}

	return &API{
		db:          gdb,
		catalog:     catalog,
		renderer:    renderer,
		form:        form,
		drafts:      editor.NewDraftStore(draftTTL),
		pages:       service.NewPageService(gdb, catalog, logger.Named("pages")),
		media:       service.NewMediaService(gdb, opts.Store, maxUpload, logger.Named("media")),
		settings:    service.NewSiteSettingService(gdb, logger.Named("settings")),
		imagekit:    opts.ImageKit,
		saveTimeout: saveTimeout,
		maxUpload:   maxUpload,
		logger:      logger,
	}, nil
}

// DB 返回底层 gorm 实例
func (a *API) DB() *gorm.DB {
	return a.db
}

// Drafts 返回草稿存储，供服务进程清理闲置草稿
func (a *API) Drafts() *editor.DraftStore {
	return a.drafts
}

// renderHTML 在渲染后台模板时附加当前登录用户名。
func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}
	if _, exists := payload["username"]; !exists {
		payload["username"] = sessions.Default(c).Get("username")
	}
	c.HTML(status, template, payload)
}

// currentUserID 返回当前登录用户 ID，未登录为 0
func currentUserID(c *gin.Context) uint {
	switch v := sessions.Default(c).Get("user_id").(type) {
	case uint:
		return v
	case int:
		return uint(v)
	case int64:
		return uint(v)
	case uint64:
		return uint(v)
	default:
		return 0
	}
}
