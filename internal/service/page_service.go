package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blockcms/internal/component"
	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/logging"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound      = errors.New("page not found")
	ErrPageInvalid       = errors.New("page is invalid")
	ErrSlugTaken         = errors.New("slug is already in use")
	ErrHomepageDelete    = errors.New("cannot delete the homepage")
	ErrPageStatusInvalid = errors.New("page status is invalid")
)

// Catalog 是服务层校验内容块时需要的组件目录视图。
type Catalog interface {
	Lookup(blockType string) (component.Definition, bool)
}

// PageService 管理由内容块组成的页面。
type PageService struct {
	db      *gorm.DB
	catalog Catalog
	logger  *zap.Logger
}

// PageFilter 页面列表过滤条件
type PageFilter struct {
	Search  string
	Status  string
	Page    int
	PerPage int
}

// PageListResult 页面分页结果
type PageListResult struct {
	Items      []db.Page
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// PageInput 创建或更新页面时接受的字段。更新时 Content 为 nil 则保留原有内容块。
type PageInput struct {
	Title           string
	Slug            string
	MetaTitle       string
	MetaDescription string
	Status          string
	IsHomepage      bool
	Content         []component.Block
}

// BlockIssue 是保存或巡检时针对某个内容块给出的提示，不会阻止保存。
type BlockIssue struct {
	BlockID  string `json:"blockId"`
	Type     string `json:"type"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

func (i BlockIssue) String() string {
	location := i.Location
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("%s (%s) %s: %s", i.BlockID, i.Type, location, i.Message)
}

// PageIssues 单个页面的检查结果
type PageIssues struct {
	PageID uint
	Slug   string
	Issues []BlockIssue
}

// NewPageService 创建页面服务实例
func NewPageService(gdb *gorm.DB, catalog Catalog, logger *zap.Logger) *PageService {
	return &PageService{db: gdb, catalog: catalog, logger: logging.OrNop(logger)}
}

// Validate 校验规范化后的输入
func (in PageInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Slug, validation.Required, validation.Length(1, 120), validation.By(validSlug)),
		validation.Field(&in.MetaTitle, validation.Length(0, 200)),
		validation.Field(&in.MetaDescription, validation.Length(0, 500)),
		validation.Field(&in.Status, validation.Required, validation.In(db.PageStatusDraft, db.PageStatusPublished)),
	)
}

func validSlug(value any) error {
	s, _ := value.(string)
	if !slug.IsValid(s) {
		return errors.New("must contain only lowercase letters, digits and hyphens")
	}
	return nil
}

// List 按更新时间倒序返回符合条件的页面
func (s *PageService) List(filter PageFilter) (PageListResult, error) {
	result := PageListResult{
		Page:    normalizePage(filter.Page),
		PerPage: normalizePerPage(filter.PerPage, 20),
	}

	query := s.db.Model(&db.Page{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR slug LIKE ?", like, like)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return result, err
	}

	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)
	offset := (result.Page - 1) * result.PerPage

	if err := query.Order("is_homepage desc").Order("updated_at desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Items).Error; err != nil {
		return result, err
	}
	return result, nil
}

// Get 根据 ID 获取页面，不区分状态
func (s *PageService) Get(id uint) (*db.Page, error) {
	return s.get(s.db, id)
}

func (s *PageService) get(tx *gorm.DB, id uint) (*db.Page, error) {
	var page db.Page
	if err := tx.First(&page, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// GetBySlug 根据 slug 获取页面，不区分状态
func (s *PageService) GetBySlug(pageSlug string) (*db.Page, error) {
	return s.first(s.db.Where("slug = ?", strings.TrimSpace(pageSlug)))
}

// GetPublishedBySlug 仅返回已发布的页面，草稿对公开路由不可见。
func (s *PageService) GetPublishedBySlug(ctx context.Context, pageSlug string) (*db.Page, error) {
	return s.first(s.db.WithContext(ctx).
		Where("slug = ? AND status = ?", strings.TrimSpace(pageSlug), db.PageStatusPublished))
}

// GetHomepage 返回已发布的首页。
func (s *PageService) GetHomepage(ctx context.Context) (*db.Page, error) {
	return s.first(s.db.WithContext(ctx).
		Where("is_homepage = ? AND status = ?", true, db.PageStatusPublished))
}

func (s *PageService) first(query *gorm.DB) (*db.Page, error) {
	var page db.Page
	if err := query.First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// Create 新建页面。标记为首页时，其他页面的首页标记会在同一事务中清除。
func (s *PageService) Create(input PageInput) (*db.Page, error) {
	return s.CreateContext(context.Background(), input)
}

// CreateContext 与 Create 相同，事务受 ctx 的超时和取消控制。
func (s *PageService) CreateContext(ctx context.Context, input PageInput) (*db.Page, error) {
	normalized, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	page := db.Page{
		Title:           normalized.Title,
		Slug:            normalized.Slug,
		MetaTitle:       normalized.MetaTitle,
		MetaDescription: normalized.MetaDescription,
		Status:          normalized.Status,
		IsHomepage:      normalized.IsHomepage,
		Content:         nonNilBlocks(normalized.Content),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSlugFree(tx, page.Slug, 0); err != nil {
			return err
		}
		if page.IsHomepage {
			if err := clearHomepage(tx, 0); err != nil {
				return err
			}
		}
		return tx.Create(&page).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("page created", zap.Uint("page_id", page.ID), zap.String("slug", page.Slug))
	return &page, nil
}

// Update 更新页面的元信息，Content 非空时一并替换内容块。
func (s *PageService) Update(id uint, input PageInput) (*db.Page, error) {
	normalized, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	var page *db.Page
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.get(tx, id)
		if err != nil {
			return err
		}
		if err := ensureSlugFree(tx, normalized.Slug, id); err != nil {
			return err
		}
		if normalized.IsHomepage && !existing.IsHomepage {
			if err := clearHomepage(tx, id); err != nil {
				return err
			}
		}

		existing.Title = normalized.Title
		existing.Slug = normalized.Slug
		existing.MetaTitle = normalized.MetaTitle
		existing.MetaDescription = normalized.MetaDescription
		existing.Status = normalized.Status
		existing.IsHomepage = normalized.IsHomepage
		if normalized.Content != nil {
			existing.Content = normalized.Content
		}
		existing.Content = nonNilBlocks(existing.Content)

		if err := tx.Save(existing).Error; err != nil {
			return err
		}
		page = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// SaveContent 整体覆盖页面的内容块列表（后保存者覆盖先保存者），并返回非阻塞的校验提示。
func (s *PageService) SaveContent(ctx context.Context, id uint, blocks []component.Block) (*db.Page, []BlockIssue, error) {
	tx := s.db.WithContext(ctx)
	page, err := s.get(tx, id)
	if err != nil {
		return nil, nil, err
	}

	page.Content = nonNilBlocks(blocks)
	if err := tx.Save(page).Error; err != nil {
		return nil, nil, fmt.Errorf("save page %d content: %w", id, err)
	}

	issues := s.Lint(page.Content)
	s.logger.Info("page content saved",
		zap.Uint("page_id", page.ID),
		zap.Int("blocks", len(page.Content)),
		zap.Int("issues", len(issues)),
	)
	return page, issues, nil
}

// Delete 删除页面，首页需先指定新的首页才能删除
func (s *PageService) Delete(id uint) error {
	page, err := s.Get(id)
	if err != nil {
		return err
	}
	if page.IsHomepage {
		return ErrHomepageDelete
	}
	if err := s.db.Unscoped().Delete(&db.Page{}, page.ID).Error; err != nil {
		return err
	}
	s.logger.Info("page deleted", zap.Uint("page_id", page.ID), zap.String("slug", page.Slug))
	return nil
}

// SetHomepage 将指定 slug 的页面设为唯一首页
func (s *PageService) SetHomepage(pageSlug string) (*db.Page, error) {
	var page *db.Page
	err := s.db.Transaction(func(tx *gorm.DB) error {
		found, err := s.first(tx.Where("slug = ?", strings.TrimSpace(pageSlug)))
		if err != nil {
			return err
		}
		if err := clearHomepage(tx, found.ID); err != nil {
			return err
		}
		if err := tx.Model(found).Update("is_homepage", true).Error; err != nil {
			return err
		}
		found.IsHomepage = true
		page = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Lint 按组件 schema 检查内容块，未知类型单独提示。
func (s *PageService) Lint(blocks []component.Block) []BlockIssue {
	var issues []BlockIssue
	for _, block := range blocks {
		def, ok := s.catalog.Lookup(block.Type)
		if !ok {
			issues = append(issues, BlockIssue{
				BlockID: block.ID,
				Type:    block.Type,
				Message: fmt.Sprintf("unknown component type %q", block.Type),
			})
			continue
		}
		found, err := component.Lint(def, block.Data)
		if err != nil {
			s.logger.Warn("lint block failed", zap.String("block_id", block.ID), zap.String("type", block.Type), zap.Error(err))
			continue
		}
		for _, issue := range found {
			issues = append(issues, BlockIssue{
				BlockID:  block.ID,
				Type:     block.Type,
				Location: issue.Location,
				Message:  issue.Message,
			})
		}
	}
	return issues
}

// LintAll 检查所有页面，返回存在问题的页面
func (s *PageService) LintAll(ctx context.Context) ([]PageIssues, error) {
	var pages []db.Page
	if err := s.db.WithContext(ctx).Order("id asc").Find(&pages).Error; err != nil {
		return nil, err
	}

	var report []PageIssues
	for _, page := range pages {
		issues := s.Lint(page.Content)
		if len(issues) == 0 {
			continue
		}
		report = append(report, PageIssues{PageID: page.ID, Slug: page.Slug, Issues: issues})
	}
	return report, nil
}

func (s *PageService) normalize(input PageInput) (PageInput, error) {
	normalized := PageInput{
		Title:           strings.TrimSpace(input.Title),
		MetaTitle:       strings.TrimSpace(input.MetaTitle),
		MetaDescription: strings.TrimSpace(input.MetaDescription),
		Status:          strings.ToLower(strings.TrimSpace(input.Status)),
		IsHomepage:      input.IsHomepage,
		Content:         input.Content,
	}

	if normalized.Status == "" {
		normalized.Status = db.PageStatusDraft
	}
	if normalized.Status != db.PageStatusDraft && normalized.Status != db.PageStatusPublished {
		return PageInput{}, ErrPageStatusInvalid
	}

	candidate := strings.TrimSpace(input.Slug)
	if candidate == "" {
		candidate = normalized.Title
	}
	if candidate != "" {
		normalizedSlug, err := slug.Normalize(candidate)
		if err != nil {
			return PageInput{}, fmt.Errorf("%w: slug: %v", ErrPageInvalid, err)
		}
		normalized.Slug = normalizedSlug
	}

	if err := normalized.Validate(); err != nil {
		return PageInput{}, fmt.Errorf("%w: %v", ErrPageInvalid, err)
	}
	return normalized, nil
}

func ensureSlugFree(tx *gorm.DB, pageSlug string, exceptID uint) error {
	var count int64
	query := tx.Model(&db.Page{}).Where("slug = ?", pageSlug)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSlugTaken
	}
	return nil
}

func clearHomepage(tx *gorm.DB, exceptID uint) error {
	query := tx.Model(&db.Page{}).Where("is_homepage = ?", true)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	return query.Update("is_homepage", false).Error
}

func nonNilBlocks(blocks []component.Block) []component.Block {
	if blocks == nil {
		return []component.Block{}
	}
	return blocks
}
