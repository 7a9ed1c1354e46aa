package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/blockcms/internal/service"
	"github.com/gin-gonic/gin"
)

type mediaAltPayload struct {
	AltText string `json:"alt_text"`
}

// ShowMediaLibrary 渲染后台媒体库
func (a *API) ShowMediaLibrary(c *gin.Context) {
	result, err := a.media.List(service.MediaFilter{
		Search:  c.Query("search"),
		Page:    parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage: 24,
	})
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "media.html", gin.H{
			"title":      "Media",
			"error":      "Failed to load media",
			"page":       1,
			"totalPages": 1,
			"search":     c.Query("search"),
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "media.html", gin.H{
		"title":      "Media",
		"items":      result.Items,
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"search":     c.Query("search"),
		"imagekit":   a.imagekit != nil,
	})
}

// ListMedia 按上传时间倒序返回媒体
func (a *API) ListMedia(c *gin.Context) {
	result, err := a.media.List(service.MediaFilter{
		Search:  c.Query("search"),
		Page:    parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage: parsePositiveInt(c.DefaultQuery("per_page", "24"), 24),
	})
	if err != nil {
		a.respondMediaError(c, err, "failed to list media")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      result.Items,
		"total":      result.Total,
		"page":       result.Page,
		"totalPages": result.TotalPages,
	})
}

// UploadMedia 处理图片上传：读取 multipart 文件，校验后写入存储并记录元数据。
func (a *API) UploadMedia(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxUpload+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, service.ErrMediaTooLarge.Error())
			return
		}
		respondError(c, http.StatusBadRequest, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read upload")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, a.maxUpload+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read upload")
		return
	}

	asset, err := a.media.Upload(c.Request.Context(), service.UploadInput{
		OriginalFilename: fileHeader.Filename,
		Content:          content,
		AltText:          c.PostForm("alt_text"),
		UploadedBy:       currentUserID(c),
	})
	if err != nil {
		a.respondMediaError(c, err, "failed to upload media")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "uploaded", "item": asset})
}

// UpdateMedia 更新媒体的替代文本
func (a *API) UpdateMedia(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid media id")
		return
	}
	var payload mediaAltPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	asset, err := a.media.UpdateAltText(id, payload.AltText)
	if err != nil {
		a.respondMediaError(c, err, "failed to update media")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "media updated", "item": asset})
}

// DeleteMedia 删除媒体，存储文件尽力删除
func (a *API) DeleteMedia(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid media id")
		return
	}

	if err := a.media.Delete(c.Request.Context(), id); err != nil {
		a.respondMediaError(c, err, "failed to delete media")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "media deleted"})
}

// ImageKitAuth 返回浏览器直传 ImageKit 所需的签名参数。
func (a *API) ImageKitAuth(c *gin.Context) {
	if a.imagekit == nil {
		respondError(c, http.StatusNotFound, "imagekit is not configured")
		return
	}
	c.JSON(http.StatusOK, a.imagekit.AuthParams())
}
