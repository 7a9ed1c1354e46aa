package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/logging"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSettingTypeInvalid = errors.New("setting type is invalid")
	ErrSettingDataInvalid = errors.New("setting data is invalid")
)

// Logo 页眉页脚中的品牌图片
type Logo struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// NavItem 导航链接，Children 渲染为下拉菜单
type NavItem struct {
	Label    string    `json:"label"`
	Href     string    `json:"href"`
	Children []NavItem `json:"children,omitempty"`
}

func (n NavItem) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Label, validation.Required),
		validation.Field(&n.Href, validation.Required),
		validation.Field(&n.Children),
	)
}

// HeaderCTA 导航末尾的行动按钮
type HeaderCTA struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Style string `json:"style"`
}

func (c HeaderCTA) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Label, validation.Required),
		validation.Field(&c.Href, validation.Required),
		validation.Field(&c.Style, validation.In("primary", "secondary")),
	)
}

// HeaderData 页头设置。
type HeaderData struct {
	Logo       *Logo      `json:"logo,omitempty"`
	Navigation []NavItem  `json:"navigation"`
	CTA        *HeaderCTA `json:"cta,omitempty"`
}

func (h HeaderData) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Navigation),
		validation.Field(&h.CTA),
	)
}

// FooterLink 页脚栏目中的链接
type FooterLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

func (l FooterLink) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Label, validation.Required),
		validation.Field(&l.Href, validation.Required),
	)
}

// FooterSection 带标题的页脚栏目
type FooterSection struct {
	Title string       `json:"title"`
	Links []FooterLink `json:"links"`
}

func (s FooterSection) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.Links),
	)
}

// SocialLink 社交账号链接
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

func (l SocialLink) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Platform, validation.Required),
		validation.Field(&l.URL, validation.Required, is.URL),
	)
}

// FooterData 页脚设置。
type FooterData struct {
	Logo        *Logo           `json:"logo,omitempty"`
	Description string          `json:"description"`
	Sections    []FooterSection `json:"sections"`
	SocialLinks []SocialLink    `json:"socialLinks"`
	BottomText  string          `json:"bottomText"`
	Copyright   string          `json:"copyright"`
}

func (f FooterData) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Sections),
		validation.Field(&f.SocialLinks),
	)
}

// OpenGraph og:* 元数据
type OpenGraph struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Locale      string `json:"locale"`
}

// MetadataData 站点级 SEO 元信息，页面自己的 meta 字段优先。
type MetadataData struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Keywords    string    `json:"keywords"`
	Author      string    `json:"author"`
	Robots      string    `json:"robots"`
	OpenGraph   OpenGraph `json:"openGraph"`
	FaviconURL  string    `json:"faviconUrl,omitempty"`
	SiteLogoURL string    `json:"siteLogoUrl,omitempty"`
}

func (m MetadataData) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.Description, validation.Length(0, 500)),
	)
}

// SiteChrome 公开页面所需的三类站点设置
type SiteChrome struct {
	Header   HeaderData
	Footer   FooterData
	Metadata MetadataData
}

// SiteSettingService 读写页头、页脚与元信息设置；缺失时返回内置默认值。
type SiteSettingService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSiteSettingService 创建站点设置服务
func NewSiteSettingService(gdb *gorm.DB, logger *zap.Logger) *SiteSettingService {
	return &SiteSettingService{db: gdb, logger: logging.OrNop(logger)}
}

// NormalizeSettingType 转小写并校验设置类型
func NormalizeSettingType(raw string) (string, error) {
	settingType := strings.ToLower(strings.TrimSpace(raw))
	for _, candidate := range db.SettingTypes {
		if candidate == settingType {
			return settingType, nil
		}
	}
	return "", ErrSettingTypeInvalid
}

// Header 返回页眉设置，未设置时返回默认值
func (s *SiteSettingService) Header(ctx context.Context) (HeaderData, error) {
	return loadSetting(ctx, s, db.SettingTypeHeader, DefaultHeader())
}

// Footer 返回页脚设置，未设置时返回默认值
func (s *SiteSettingService) Footer(ctx context.Context) (FooterData, error) {
	return loadSetting(ctx, s, db.SettingTypeFooter, DefaultFooter())
}

// Metadata 返回元数据设置，未设置时返回默认值
func (s *SiteSettingService) Metadata(ctx context.Context) (MetadataData, error) {
	return loadSetting(ctx, s, db.SettingTypeMetadata, DefaultMetadata())
}

// Get 以通用形式返回某一类设置，供 JSON 接口使用。
func (s *SiteSettingService) Get(ctx context.Context, rawType string) (any, error) {
	settingType, err := NormalizeSettingType(rawType)
	if err != nil {
		return nil, err
	}
	switch settingType {
	case db.SettingTypeHeader:
		return s.Header(ctx)
	case db.SettingTypeFooter:
		return s.Footer(ctx)
	default:
		return s.Metadata(ctx)
	}
}

// Update 校验并以 upsert 方式保存设置，返回规范化后的数据。
func (s *SiteSettingService) Update(ctx context.Context, rawType string, payload json.RawMessage, userID uint) (any, error) {
	settingType, err := NormalizeSettingType(rawType)
	if err != nil {
		return nil, err
	}

	var value validation.Validatable
	switch settingType {
	case db.SettingTypeHeader:
		var data HeaderData
		err = json.Unmarshal(payload, &data)
		value = data
	case db.SettingTypeFooter:
		var data FooterData
		err = json.Unmarshal(payload, &data)
		value = data
	default:
		var data MetadataData
		err = json.Unmarshal(payload, &data)
		value = data
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettingDataInvalid, err)
	}
	if err := value.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettingDataInvalid, err)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	setting := db.SiteSetting{
		SettingType: settingType,
		Data:        string(encoded),
		IsActive:    true,
		UpdatedBy:   userID,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "setting_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"data":       setting.Data,
			"is_active":  true,
			"updated_by": userID,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return nil, fmt.Errorf("upsert setting %s: %w", settingType, err)
	}

	s.logger.Info("site setting updated", zap.String("setting_type", settingType), zap.Uint("user_id", userID))
	return value, nil
}

// Chrome 加载全部三类设置
func (s *SiteSettingService) Chrome(ctx context.Context) (SiteChrome, error) {
	var chrome SiteChrome
	var err error
	if chrome.Header, err = s.Header(ctx); err != nil {
		return chrome, err
	}
	if chrome.Footer, err = s.Footer(ctx); err != nil {
		return chrome, err
	}
	chrome.Metadata, err = s.Metadata(ctx)
	return chrome, err
}

// loadSetting 解析 settingType 对应的启用记录，记录缺失或无法解析时返回 fallback
func loadSetting[T any](ctx context.Context, s *SiteSettingService, settingType string, fallback T) (T, error) {
	var setting db.SiteSetting
	err := s.db.WithContext(ctx).
		Where("setting_type = ? AND is_active = ?", settingType, true).
		First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fallback, nil
		}
		return fallback, fmt.Errorf("load %s settings: %w", settingType, err)
	}
	if strings.TrimSpace(setting.Data) == "" {
		return fallback, nil
	}
	var value T
	if err := json.Unmarshal([]byte(setting.Data), &value); err != nil {
		s.logger.Warn("stored site setting is malformed, using defaults",
			zap.String("setting_type", settingType),
			zap.Error(err),
		)
		return fallback, nil
	}
	return value, nil
}

// DefaultHeader 返回未配置时使用的页头。
func DefaultHeader() HeaderData {
	return HeaderData{
		Logo: &Logo{Src: "/assets/img/logo.svg", Alt: "Logo", Width: 120, Height: 30},
		Navigation: []NavItem{
			{Label: "Home", Href: "/"},
			{Label: "About", Href: "/about"},
			{Label: "Services", Href: "/services", Children: []NavItem{
				{Label: "Web Development", Href: "/services/web-development"},
				{Label: "Mobile Apps", Href: "/services/mobile-apps"},
				{Label: "Consulting", Href: "/services/consulting"},
			}},
			{Label: "Contact", Href: "/contact"},
		},
		CTA: &HeaderCTA{Label: "Get Started", Href: "/contact", Style: "primary"},
	}
}

// DefaultFooter 返回未配置时使用的页脚。
func DefaultFooter() FooterData {
	return FooterData{
		Logo:        &Logo{Src: "/assets/img/logo.svg", Alt: "Logo", Width: 150, Height: 50},
		Description: "Professional services for your business needs.",
		Sections: []FooterSection{
			{Title: "Services", Links: []FooterLink{
				{Label: "Web Development", Href: "/services/web-development"},
				{Label: "Consulting", Href: "/services/consulting"},
			}},
			{Title: "Company", Links: []FooterLink{
				{Label: "About Us", Href: "/about"},
				{Label: "Contact", Href: "/contact"},
			}},
		},
		SocialLinks: []SocialLink{},
		BottomText:  "",
		Copyright:   "© All rights reserved.",
	}
}

// DefaultMetadata 返回未配置时使用的 SEO 元信息。
func DefaultMetadata() MetadataData {
	return MetadataData{
		Title:       "blockcms",
		Description: "A site built from content blocks.",
		Robots:      "index, follow",
		OpenGraph: OpenGraph{
			Title:       "blockcms",
			Description: "A site built from content blocks.",
			Type:        "website",
			Locale:      "en_US",
		},
	}
}
