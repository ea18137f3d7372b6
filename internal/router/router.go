package router

import (
	"net/http"

	"failarchive/internal/handlers"
	"failarchive/internal/middleware"
	"failarchive/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionName = "failarchive_session"

// New 构建带会话与中间件的 gin 引擎
func New(sessionSecret string, secureCookie bool, log *zap.Logger, svc *services.Bundle) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadUser(svc.Accounts, svc.Notifications))

	RegisterRoutes(r, svc)
	return r
}

func RegisterRoutes(r *gin.Engine, svc *services.Bundle) {
	// Handlers
	authHandler := handlers.NewAuthHandler(svc.Accounts)
	submissionHandler := handlers.NewSubmissionHandler(svc.Submissions, svc.Tokens)
	reuseHandler := handlers.NewReuseHandler(svc.Reuse)
	premortemHandler := handlers.NewPreMortemHandler(svc.PreMortem)
	dashboardHandler := handlers.NewDashboardHandler(svc.Submissions)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)
	adminHandler := handlers.NewAdminHandler(svc.Gate)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.POST("/auth/register", authHandler.Register)            // 注册
	api.POST("/auth/login", authHandler.Login)                  // 登录
	api.POST("/auth/logout", authHandler.Logout)                // 退出登录
	api.POST("/anonymous-tokens", submissionHandler.IssueToken) // 签发匿名令牌
	api.POST("/submissions", submissionHandler.Create)          // 提交（会话或匿名令牌）
	api.GET("/submissions", submissionHandler.List)             // 画廊列表
	api.GET("/submissions/:id", submissionHandler.Detail)       // 记录详情
	api.POST("/premortem", premortemHandler.Analyze)            // 事前验尸分析

	// 受保护路由 (Protected Routes)
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me)                               // 当前用户
		authorized.POST("/reuse", reuseHandler.Declare)                          // 声明复用
		authorized.GET("/reuse", reuseHandler.List)                              // 我的复用历史
		authorized.GET("/dashboard/submissions", dashboardHandler.Submissions)   // 我的提交
		authorized.GET("/dashboard/submission/:id", dashboardHandler.Submission) // 我的提交详情
		authorized.GET("/notifications", notificationHandler.List)               // 通知列表
		authorized.POST("/notifications/:id/read", notificationHandler.Read)     // 标记单条通知为已读
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)  // 全部通知标记为已读
	}

	// 管理路由 (Admin Routes)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/moderation", adminHandler.ModerationQueue) // 待审队列
		admin.POST("/moderation/:id", adminHandler.Decide)     // 审核决定
	}
}
