package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultImageKitUploadURL = "https://upload.imagekit.io/api/v1/files/upload"
	defaultImageKitAPIURL    = "https://api.imagekit.io/v1"
	imageKitAuthTTL          = 30 * time.Minute
)

// ImageKitConfig holds account credentials.
type ImageKitConfig struct {
	PublicKey   string
	PrivateKey  string
	URLEndpoint string
	Folder      string
}

// ImageKit stores blobs through the ImageKit REST API.
type ImageKit struct {
	cfg       ImageKitConfig
	http      httpDoer
	uploadURL string
	apiURL    string
	now       func() time.Time
}

func NewImageKit(cfg ImageKitConfig) (*ImageKit, error) {
	if strings.TrimSpace(cfg.PrivateKey) == "" || strings.TrimSpace(cfg.PublicKey) == "" {
		return nil, fmt.Errorf("%w: imagekit keys missing", ErrNotConfigured)
	}
	return &ImageKit{
		cfg:       cfg,
		http:      &http.Client{Timeout: 60 * time.Second},
		uploadURL: defaultImageKitUploadURL,
		apiURL:    defaultImageKitAPIURL,
		now:       time.Now,
	}, nil
}

func (k *ImageKit) SetHTTPClient(client httpDoer) {
	if client == nil {
		k.http = &http.Client{Timeout: 60 * time.Second}
		return
	}
	k.http = client
}

// SetBaseURLs points the client at another upload and management API.
func (k *ImageKit) SetBaseURLs(uploadURL, apiURL string) {
	if trimmed := strings.TrimSpace(uploadURL); trimmed != "" {
		k.uploadURL = trimmed
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(apiURL), "/"); trimmed != "" {
		k.apiURL = trimmed
	}
}

type imageKitUploadResponse struct {
	FileID  string `json:"fileId"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Size    int64  `json:"size"`
	Message string `json:"message"`
}

// Put uploads body as a multipart form.
func (k *ImageKit) Put(ctx context.Context, name, contentType string, body io.Reader) (Object, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fileName := UniqueName(name, k.now())
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return Object{}, err
	}
	if _, err := io.Copy(part, body); err != nil {
		return Object{}, fmt.Errorf("read upload: %w", err)
	}
	fields := map[string]string{
		"fileName":          fileName,
		"useUniqueFileName": "true",
	}
	if folder := strings.TrimSpace(k.cfg.Folder); folder != "" {
		fields["folder"] = folder
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return Object{}, err
		}
	}
	if err := form.Close(); err != nil {
		return Object{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.uploadURL, &buf)
	if err != nil {
		return Object{}, fmt.Errorf("create imagekit upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(k.cfg.PrivateKey, "")

	respBody, status, err := k.do(req)
	if err != nil {
		return Object{}, err
	}
	var payload imageKitUploadResponse
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return Object{}, fmt.Errorf("decode imagekit upload response: %w", err)
	}
	if status >= http.StatusBadRequest || payload.FileID == "" {
		return Object{}, fmt.Errorf("imagekit upload failed (%d): %s", status, strings.TrimSpace(payload.Message))
	}
	return Object{Key: payload.FileID, URL: payload.URL, Name: payload.Name, Size: payload.Size}, nil
}

// Delete removes a file by its ImageKit id.
func (k *ImageKit) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	endpoint := k.apiURL + "/files/" + url.PathEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create imagekit delete request: %w", err)
	}
	req.SetBasicAuth(k.cfg.PrivateKey, "")

	body, status, err := k.do(req)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("imagekit delete failed (%d): %s", status, strings.TrimSpace(string(body)))
	}
	return nil
}

func (k *ImageKit) do(req *http.Request) ([]byte, int, error) {
	client := k.http
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("call imagekit: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read imagekit response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// AuthParams are the signed values a browser needs for a direct upload.
type AuthParams struct {
	Token       string `json:"token"`
	Expire      int64  `json:"expire"`
	Signature   string `json:"signature"`
	PublicKey   string `json:"publicKey"`
	URLEndpoint string `json:"urlEndpoint"`
}

// AuthParams signs a fresh token: HMAC-SHA1(privateKey, token+expire).
func (k *ImageKit) AuthParams() AuthParams {
	token := uuid.NewString()
	expire := k.now().Add(imageKitAuthTTL).Unix()
	mac := hmac.New(sha1.New, []byte(k.cfg.PrivateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return AuthParams{
		Token:       token,
		Expire:      expire,
		Signature:   hex.EncodeToString(mac.Sum(nil)),
		PublicKey:   k.cfg.PublicKey,
		URLEndpoint: k.cfg.URLEndpoint,
	}
}
