package db

import "gorm.io/gorm"

// SiteSetting 按类型存储站点级配置（页头、页脚、SEO 元信息），Data 为 JSON 文本。
type SiteSetting struct {
	gorm.Model
	SettingType string `gorm:"size:32;uniqueIndex;not null"`
	Data        string `gorm:"type:text"`
	IsActive    bool   `gorm:"default:true"`
	UpdatedBy   uint
}

// TableName 自定义表名以保持命名一致。
func (SiteSetting) TableName() string {
	return "site_settings"
}

const (
	SettingTypeHeader   = "header"
	SettingTypeFooter   = "footer"
	SettingTypeMetadata = "metadata"
)

// SettingTypes 列出所有合法的设置类型。
var SettingTypes = []string{SettingTypeHeader, SettingTypeFooter, SettingTypeMetadata}
