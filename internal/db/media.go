package db

import "gorm.io/gorm"

// MediaAsset 一张已上传图片的元数据
type MediaAsset struct {
	gorm.Model
	Filename         string `gorm:"not null"`
	OriginalFilename string
	FilePath         string `gorm:"not null"` // public URL
	FileSize         int64
	MimeType         string `gorm:"size:100"`
	Width            int
	Height           int
	AltText          string
	StorageFileID    string `gorm:"index"` // blob key: file name on disk or ImageKit file id
	UploadedBy       uint
}
