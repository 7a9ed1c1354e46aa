package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blockcms/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShowSettings 渲染页眉、页脚和元数据设置页
func (a *API) ShowSettings(c *gin.Context) {
	chrome, err := a.settings.Chrome(c.Request.Context())
	if err != nil {
		a.logger.Error("load site settings failed", zap.Error(err))
		a.renderHTML(c, http.StatusInternalServerError, "settings.html", gin.H{
			"title": "Site settings",
			"error": "Failed to load settings",
		})
		return
	}

	encode := func(v any) string {
		raw, _ := json.MarshalIndent(v, "", "  ")
		return string(raw)
	}
	a.renderHTML(c, http.StatusOK, "settings.html", gin.H{
		"title":    "Site settings",
		"header":   encode(chrome.Header),
		"footer":   encode(chrome.Footer),
		"metadata": encode(chrome.Metadata),
	})
}

// GetSiteSetting 返回指定类型的设置，未设置时返回默认值
func (a *API) GetSiteSetting(c *gin.Context) {
	data, err := a.settings.Get(c.Request.Context(), c.Param("type"))
	if err != nil {
		a.respondSettingError(c, err, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "success": true})
}

// UpdateSiteSetting 整体替换指定类型的设置
func (a *API) UpdateSiteSetting(c *gin.Context) {
	var payload struct {
		Data json.RawMessage `json:"data"`
	}
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}
	if len(payload.Data) == 0 {
		respondError(c, http.StatusBadRequest, "data is required")
		return
	}

	data, err := a.settings.Update(c.Request.Context(), c.Param("type"), payload.Data, currentUserID(c))
	if err != nil {
		a.respondSettingError(c, err, "failed to update settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "success": true})
}

func (a *API) respondSettingError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrSettingTypeInvalid):
		respondError(c, http.StatusNotFound, "unknown setting type")
	case errors.Is(err, service.ErrSettingDataInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error(fallback, zap.Error(err))
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
