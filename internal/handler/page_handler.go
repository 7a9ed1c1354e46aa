package handler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/blockcms/internal/component"
	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/editor"
	"github.com/blockcms/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type pagePayload struct {
	Title           string            `json:"title"`
	Slug            string            `json:"slug"`
	MetaTitle       string            `json:"meta_title"`
	MetaDescription string            `json:"meta_description"`
	Status          string            `json:"status"`
	IsHomepage      bool              `json:"is_homepage"`
	Content         []component.Block `json:"content"`
}

func (p pagePayload) toInput() service.PageInput {
	return service.PageInput{
		Title:           p.Title,
		Slug:            p.Slug,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		Status:          p.Status,
		IsHomepage:      p.IsHomepage,
		Content:         p.Content,
	}
}

type componentGroup struct {
	Category   string                 `json:"category"`
	Components []component.Definition `json:"components"`
}

func (a *API) componentGroups(category string) []componentGroup {
	var categories []string
	if category = strings.TrimSpace(category); category != "" {
		categories = []string{category}
	} else {
		categories = component.Categories(a.catalog.All())
	}
	groups := make([]componentGroup, 0, len(categories))
	for _, name := range categories {
		defs := a.catalog.ByCategory(name)
		if len(defs) == 0 {
			continue
		}
		groups = append(groups, componentGroup{Category: name, Components: defs})
	}
	return groups
}

// ListComponents 返回按分类分组的组件目录。
func (a *API) ListComponents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": a.componentGroups(c.Query("category"))})
}

// ShowPageList 渲染后台页面列表
func (a *API) ShowPageList(c *gin.Context) {
	result, err := a.pages.List(service.PageFilter{
		Search:  c.Query("search"),
		Status:  c.Query("status"),
		Page:    parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage: 20,
	})
	if err != nil {
		a.logger.Error("list pages failed", zap.Error(err))
		a.renderHTML(c, http.StatusInternalServerError, "pages.html", gin.H{
			"title":      "Pages",
			"error":      "Failed to load pages",
			"page":       1,
			"totalPages": 1,
			"search":     c.Query("search"),
			"status":     c.Query("status"),
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "pages.html", gin.H{
		"title":      "Pages",
		"pages":      result.Items,
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"search":     c.Query("search"),
		"status":     c.Query("status"),
	})
}

// ShowPageEditor 为新页面或已有页面打开草稿并渲染内容块编辑器
func (a *API) ShowPageEditor(c *gin.Context) {
	page := &db.Page{Status: db.PageStatusDraft}
	if raw := c.Param("id"); raw != "" {
		id, err := parseUintParam(c, "id")
		if err != nil {
			c.String(http.StatusBadRequest, "invalid page id")
			return
		}
		found, err := a.pages.Get(id)
		if err != nil {
			if errors.Is(err, service.ErrPageNotFound) {
				c.String(http.StatusNotFound, "page not found")
				return
			}
			a.logger.Error("load page failed", zap.Uint("page_id", id), zap.Error(err))
			c.String(http.StatusInternalServerError, "failed to load page")
			return
		}
		page = found
	}

	draft := a.drafts.Open(page.ID, a.catalog, page.Content)
	forms, err := a.renderBlockForms(draft)
	if err != nil {
		a.logger.Error("render block forms failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to render editor")
		return
	}

	a.renderHTML(c, http.StatusOK, "page_edit.html", gin.H{
		"title":      "Edit page",
		"pageRecord": page,
		"isNew":      page.ID == 0,
		"draftID":    draft.ID(),
		"blockForms": forms,
		"groups":     a.componentGroups(""),
	})
}

type blockFormView struct {
	Block component.Block
	Name  string
	HTML  template.HTML
}

func (a *API) renderBlockForms(draft *editor.Session) ([]blockFormView, error) {
	pending := draft.Pending()
	blocks := draft.Blocks()
	views := make([]blockFormView, 0, len(blocks))
	for _, block := range blocks {
		var buf bytes.Buffer
		if err := a.form.RenderBlock(&buf, draft.ID(), a.catalog, block, pending); err != nil {
			return nil, err
		}
		name := block.Type
		if def, ok := a.catalog.Lookup(block.Type); ok {
			name = def.Name
		}
		views = append(views, blockFormView{Block: block, Name: name, HTML: template.HTML(buf.String())})
	}
	return views, nil
}

// ListPages 后台 API 页面列表
func (a *API) ListPages(c *gin.Context) {
	result, err := a.pages.List(service.PageFilter{
		Search:  c.Query("search"),
		Status:  c.Query("status"),
		Page:    parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage: parsePositiveInt(c.DefaultQuery("per_page", "20"), 20),
	})
	if err != nil {
		a.logger.Error("list pages failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list pages")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      result.Items,
		"total":      result.Total,
		"page":       result.Page,
		"totalPages": result.TotalPages,
	})
}

// GetPage 返回单个页面及其内容块
func (a *API) GetPage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid page id")
		return
	}
	page, err := a.pages.Get(id)
	if err != nil {
		a.respondPageError(c, err, "failed to load page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

// CreatePage 根据 JSON 创建页面
func (a *API) CreatePage(c *gin.Context) {
	var payload pagePayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	page, err := a.pages.Create(payload.toInput())
	if err != nil {
		a.respondPageError(c, err, "failed to create page")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "page created",
		"page":     page,
		"warnings": a.pages.Lint(page.Content),
	})
}

// UpdatePage 更新页面信息，提交 content 时同时更新内容块
func (a *API) UpdatePage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid page id")
		return
	}

	var payload pagePayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	page, err := a.pages.Update(id, payload.toInput())
	if err != nil {
		a.respondPageError(c, err, "failed to update page")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "page updated",
		"page":     page,
		"warnings": a.pages.Lint(page.Content),
	})
}

// DeletePage 删除页面，首页不可删除
func (a *API) DeletePage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid page id")
		return
	}

	if err := a.pages.Delete(id); err != nil {
		a.respondPageError(c, err, "failed to delete page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "page deleted"})
}

func (a *API) respondPageError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPageNotFound):
		respondError(c, http.StatusNotFound, "page not found")
	case errors.Is(err, service.ErrHomepageDelete):
		respondError(c, http.StatusBadRequest, "the homepage cannot be deleted; choose another homepage first")
	case errors.Is(err, service.ErrSlugTaken):
		respondError(c, http.StatusConflict, "slug is already in use")
	case errors.Is(err, service.ErrPageStatusInvalid):
		respondError(c, http.StatusBadRequest, "status must be draft or published")
	case errors.Is(err, service.ErrPageInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error(fallback, zap.Error(err))
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
