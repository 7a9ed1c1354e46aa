package router

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/blockcms/internal/handler"
	"github.com/blockcms/web"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Options 路由所需的配置项
type Options struct {
	SessionSecret string
	UploadDir     string
	UploadURLPath string
	SecureCookie  bool
}

// templateFuncs 后台与前台模板共用的函数
var templateFuncs = template.FuncMap{
	"add": func(a, b int) int {
		return a + b
	},
	"sub": func(a, b int) int {
		return a - b
	},
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) (*gin.Engine, error) {
	r := gin.Default()

	// 配置会话中间件
	secret := strings.TrimSpace(opts.SessionSecret)
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("blockcms_session", store))

	// 加载模板并添加自定义函数
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(web.Templates, "template/admin/*.html", "template/public/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// 静态文件服务
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, err
	}
	r.StaticFS("/assets", http.FS(static))
	if opts.UploadDir != "" {
		uploadURL := "/" + strings.Trim(opts.UploadURLPath, "/")
		if uploadURL == "/" {
			uploadURL = "/static/uploads"
		}
		r.Static(uploadURL, opts.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	r.GET("/healthz", api.HealthCheck)

	// 公开路由
	r.GET("/", api.ShowHome)
	r.GET("/api/site-settings/:type", api.GetSiteSetting)
	r.NoRoute(api.ShowPage)

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", api.ShowLoginPage)
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("", func(c *gin.Context) { c.Redirect(http.StatusFound, "/admin/dashboard") })
			auth.GET("/dashboard", api.ShowDashboard)
			auth.GET("/pages", api.ShowPageList)
			auth.GET("/pages/new", api.ShowPageEditor)
			auth.GET("/pages/:id/edit", api.ShowPageEditor)
			auth.GET("/media", api.ShowMediaLibrary)
			auth.GET("/settings", api.ShowSettings)

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/components", api.ListComponents)

				apiGroup.GET("/pages", api.ListPages)
				apiGroup.GET("/pages/:id", api.GetPage)
				apiGroup.POST("/pages", api.CreatePage)
				apiGroup.PUT("/pages/:id", api.UpdatePage)
				apiGroup.DELETE("/pages/:id", api.DeletePage)

				drafts := apiGroup.Group("/drafts")
				{
					drafts.POST("", api.OpenDraft)
					drafts.GET("/:draft", api.GetDraft)
					drafts.DELETE("/:draft", api.DiscardDraft)
					drafts.POST("/:draft/blocks", api.AddBlock)
					drafts.DELETE("/:draft/blocks/:block", api.RemoveBlock)
					drafts.POST("/:draft/blocks/:block/move", api.MoveBlock)
					drafts.GET("/:draft/blocks/:block/form", api.BlockForm)
					drafts.POST("/:draft/blocks/:block/fields", api.SetField)
					drafts.POST("/:draft/blocks/:block/elements", api.AddElement)
					drafts.DELETE("/:draft/blocks/:block/elements", api.RemoveElement)
					drafts.POST("/:draft/blocks/:block/elements/move", api.MoveElement)
					drafts.POST("/:draft/selection", api.SetSelection)
					drafts.DELETE("/:draft/selection", api.CancelSelection)
					drafts.POST("/:draft/selection/apply", api.ApplySelection)
					drafts.POST("/:draft/save", api.SaveDraft)
				}

				apiGroup.GET("/media", api.ListMedia)
				apiGroup.POST("/media", api.UploadMedia)
				apiGroup.PUT("/media/:id", api.UpdateMedia)
				apiGroup.DELETE("/media/:id", api.DeleteMedia)
				apiGroup.GET("/imagekit/auth", api.ImageKitAuth)

				apiGroup.GET("/site-settings/:type", api.GetSiteSetting)
				apiGroup.PUT("/site-settings/:type", api.UpdateSiteSetting)
			}
		}
	}

	return r, nil
}
