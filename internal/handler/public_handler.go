package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type pageMeta struct {
	Title         string
	Description   string
	Keywords      string
	Author        string
	Robots        string
	OGTitle       string
	OGDescription string
	OGType        string
	OGLocale      string
	FaviconURL    string
	Canonical     string
}

func buildPageMeta(page *db.Page, metadata service.MetadataData, canonical string) pageMeta {
	meta := pageMeta{
		Title:         metadata.Title,
		Description:   metadata.Description,
		Keywords:      metadata.Keywords,
		Author:        metadata.Author,
		Robots:        metadata.Robots,
		OGTitle:       metadata.OpenGraph.Title,
		OGDescription: metadata.OpenGraph.Description,
		OGType:        metadata.OpenGraph.Type,
		OGLocale:      metadata.OpenGraph.Locale,
		FaviconURL:    metadata.FaviconURL,
		Canonical:     canonical,
	}
	if page == nil {
		return meta
	}

	switch {
	case strings.TrimSpace(page.MetaTitle) != "":
		meta.Title = page.MetaTitle
	case !page.IsHomepage && page.Title != "":
		meta.Title = page.Title + " | " + metadata.Title
	}
	if strings.TrimSpace(page.MetaDescription) != "" {
		meta.Description = page.MetaDescription
	}
	if !page.IsHomepage {
		meta.OGTitle = meta.Title
		meta.OGDescription = meta.Description
	}
	return meta
}

// ShowHome 渲染已发布的首页
func (a *API) ShowHome(c *gin.Context) {
	a.showPage(c, "", "/")
}

// ShowPage 按 slug 渲染已发布页面。挂在 NoRoute 上，未匹配的 GET 路径都按 slug 处理。
func (a *API) ShowPage(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		respondError(c, http.StatusNotFound, "not found")
		return
	}
	slug := strings.Trim(c.Request.URL.Path, "/")
	if slug == "" {
		a.ShowHome(c)
		return
	}
	if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") || strings.HasPrefix(c.Request.URL.Path, "/api/") {
		respondError(c, http.StatusNotFound, "not found")
		return
	}
	a.showPage(c, slug, "/"+slug)
}

// showPage 并发加载页面与站点设置，然后渲染内容块。
func (a *API) showPage(c *gin.Context, slug, canonical string) {
	ctx := c.Request.Context()

	var (
		page   *db.Page
		chrome service.SiteChrome
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if slug == "" {
			page, err = a.pages.GetHomepage(gctx)
		} else {
			page, err = a.pages.GetPublishedBySlug(gctx, slug)
		}
		return err
	})
	g.Go(func() error {
		var err error
		chrome.Header, err = a.settings.Header(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		chrome.Footer, err = a.settings.Footer(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		chrome.Metadata, err = a.settings.Metadata(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			a.renderNotFound(c, slug)
			return
		}
		a.logger.Error("load public page failed", zap.String("slug", slug), zap.Error(err))
		c.HTML(http.StatusInternalServerError, "public_error.html", gin.H{
			"meta": buildPageMeta(nil, service.DefaultMetadata(), canonical),
		})
		return
	}

	body, err := a.renderer.RenderHTML(page.Content)
	if err != nil {
		a.logger.Error("render page failed", zap.Uint("page_id", page.ID), zap.Error(err))
		c.HTML(http.StatusInternalServerError, "public_error.html", gin.H{
			"meta": buildPageMeta(nil, chrome.Metadata, canonical),
		})
		return
	}

	c.HTML(http.StatusOK, "page.html", gin.H{
		"meta":   buildPageMeta(page, chrome.Metadata, canonical),
		"header": chrome.Header,
		"footer": chrome.Footer,
		"page":   page,
		"body":   body,
		"year":   time.Now().Year(),
	})
}

func (a *API) renderNotFound(c *gin.Context, slug string) {
	metadata, err := a.settings.Metadata(c.Request.Context())
	if err != nil {
		metadata = service.DefaultMetadata()
	}
	meta := buildPageMeta(nil, metadata, "")
	meta.Title = "Page not found | " + metadata.Title
	meta.Robots = "noindex"

	message := "The page you are looking for does not exist."
	if slug == "" {
		message = "No homepage has been published yet."
	}
	c.HTML(http.StatusNotFound, "not_found.html", gin.H{
		"meta":    meta,
		"message": message,
	})
}
