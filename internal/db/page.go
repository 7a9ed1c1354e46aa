package db

import (
	"github.com/blockcms/internal/component"
	"gorm.io/gorm"
)

const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
)

// Page 由内容块组成的页面。Content 以 JSON 数组原样存储，结构不做迁移。
type Page struct {
	gorm.Model
	Title           string            `gorm:"not null"`
	Slug            string            `gorm:"uniqueIndex;not null"`
	MetaTitle       string
	MetaDescription string            `gorm:"type:text"`
	Status          string            `gorm:"size:20;default:draft;index"`
	IsHomepage      bool              `gorm:"default:false;index"`
	Content         []component.Block `gorm:"serializer:json;type:text"`
}

// Published 页面是否在公开路由可见
func (p Page) Published() bool {
	return p.Status == PageStatusPublished
}
