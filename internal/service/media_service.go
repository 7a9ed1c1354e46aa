package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/logging"
	"github.com/blockcms/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMediaNotFound = errors.New("media asset not found")
	ErrMediaEmpty    = errors.New("uploaded file is empty")
	ErrMediaTooLarge = errors.New("uploaded file is too large")
)

// MediaService 管理媒体库：上传到 BlobStore 后再写入元数据。
type MediaService struct {
	db       *gorm.DB
	store    storage.BlobStore
	maxBytes int64
	logger   *zap.Logger
}

// MediaFilter 媒体列表过滤条件
type MediaFilter struct {
	Search  string
	Page    int
	PerPage int
}

// MediaListResult 媒体分页结果
type MediaListResult struct {
	Items      []db.MediaAsset
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// UploadInput 已读入内存的上传文件
type UploadInput struct {
	OriginalFilename string
	Content          []byte
	AltText          string
	UploadedBy       uint
}

// NewMediaService 创建媒体服务，maxBytes <= 0 时不限制大小
func NewMediaService(gdb *gorm.DB, store storage.BlobStore, maxBytes int64, logger *zap.Logger) *MediaService {
	return &MediaService{db: gdb, store: store, maxBytes: maxBytes, logger: logging.OrNop(logger)}
}

// Upload 校验图片后写入存储，再插入元数据记录。
// 元数据写入失败时不会回滚已上传的文件，只记录日志。
func (s *MediaService) Upload(ctx context.Context, input UploadInput) (*db.MediaAsset, error) {
	if s.store == nil {
		return nil, storage.ErrNotConfigured
	}
	if len(input.Content) == 0 {
		return nil, ErrMediaEmpty
	}
	if s.maxBytes > 0 && int64(len(input.Content)) > s.maxBytes {
		return nil, ErrMediaTooLarge
	}

	info, err := storage.ProbeImage(input.Content)
	if err != nil {
		return nil, err
	}

	original := filepath.Base(strings.TrimSpace(input.OriginalFilename))
	if original == "." || original == "/" {
		original = ""
	}

	object, err := s.store.Put(ctx, original, info.MimeType, bytes.NewReader(input.Content))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	size := object.Size
	if size <= 0 {
		size = int64(len(input.Content))
	}
	asset := db.MediaAsset{
		Filename:         object.Name,
		OriginalFilename: original,
		FilePath:         object.URL,
		FileSize:         size,
		MimeType:         info.MimeType,
		Width:            info.Width,
		Height:           info.Height,
		AltText:          strings.TrimSpace(input.AltText),
		StorageFileID:    object.Key,
		UploadedBy:       input.UploadedBy,
	}
	if err := s.db.WithContext(ctx).Create(&asset).Error; err != nil {
		s.logger.Error("media metadata insert failed, blob left orphaned",
			zap.String("storage_file_id", object.Key),
			zap.String("url", object.URL),
			zap.Error(err),
		)
		return nil, fmt.Errorf("save media metadata: %w", err)
	}

	s.logger.Info("media uploaded",
		zap.Uint("media_id", asset.ID),
		zap.String("mime_type", asset.MimeType),
		zap.Int64("size", asset.FileSize),
	)
	return &asset, nil
}

// List 按上传时间倒序返回媒体
func (s *MediaService) List(filter MediaFilter) (MediaListResult, error) {
	result := MediaListResult{
		Page:    normalizePage(filter.Page),
		PerPage: normalizePerPage(filter.PerPage, 24),
	}

	query := s.db.Model(&db.MediaAsset{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("original_filename LIKE ? OR alt_text LIKE ?", like, like)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return result, err
	}

	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)
	offset := (result.Page - 1) * result.PerPage

	if err := query.Order("created_at desc").Order("id desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Items).Error; err != nil {
		return result, err
	}
	return result, nil
}

// Get 根据 ID 获取媒体
func (s *MediaService) Get(id uint) (*db.MediaAsset, error) {
	var asset db.MediaAsset
	if err := s.db.First(&asset, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// UpdateAltText 更新替代文本。
func (s *MediaService) UpdateAltText(id uint, altText string) (*db.MediaAsset, error) {
	asset, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	asset.AltText = strings.TrimSpace(altText)
	if err := s.db.Model(asset).Update("alt_text", asset.AltText).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

// Delete 先尽力删除存储中的文件（失败只记录日志），再删除元数据记录。
func (s *MediaService) Delete(ctx context.Context, id uint) error {
	asset, err := s.Get(id)
	if err != nil {
		return err
	}

	if s.store != nil && asset.StorageFileID != "" {
		if err := s.store.Delete(ctx, asset.StorageFileID); err != nil {
			s.logger.Warn("media blob delete failed",
				zap.Uint("media_id", asset.ID),
				zap.String("storage_file_id", asset.StorageFileID),
				zap.Error(err),
			)
		}
	}

	if err := s.db.WithContext(ctx).Unscoped().Delete(&db.MediaAsset{}, asset.ID).Error; err != nil {
		return fmt.Errorf("delete media %d: %w", asset.ID, err)
	}
	return nil
}
