package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/blockcms/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title": "Sign in",
	})
}

// Login 处理用户登录请求
func (a *API) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	var user db.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			a.logger.Error("load user failed", zap.Error(err))
		}
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"title": "Sign in", "error": "Invalid username or password"})
		return
	}

	if !user.CheckPassword(password) {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"title": "Sign in", "error": "Invalid username or password"})
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		a.logger.Error("save session failed", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"title": "Sign in", "error": "Could not start session"})
		return
	}

	a.logger.Info("admin signed in", zap.String("username", user.Username))
	c.Redirect(http.StatusFound, "/admin/dashboard")
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/admin/login")
}

// ShowDashboard 渲染后台主面板
func (a *API) ShowDashboard(c *gin.Context) {
	var pageCount, publishedCount, mediaCount int64
	a.db.Model(&db.Page{}).Count(&pageCount)
	a.db.Model(&db.Page{}).Where("status = ?", db.PageStatusPublished).Count(&publishedCount)
	a.db.Model(&db.MediaAsset{}).Count(&mediaCount)

	a.renderHTML(c, http.StatusOK, "dashboard.html", gin.H{
		"title":          "Dashboard",
		"pageCount":      pageCount,
		"publishedCount": publishedCount,
		"mediaCount":     mediaCount,
		"componentCount": len(a.catalog.All()),
	})
}

// AuthRequired 是一个简单的认证中间件。API 请求返回 401，页面请求跳转到登录页。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			if wantsJSON(c) {
				respondError(c, http.StatusUnauthorized, "authentication required")
			} else {
				c.Redirect(http.StatusFound, "/admin/login")
			}
			c.Abort()
			return
		}
		c.Next()
	}
}
