package router

import (
	"github.com/gin-gonic/gin"

	"serial-story-api/internal/interfaces/http/middleware"
)

// RegisterV1Routes 注册 v1 版本路由
// 读接口允许匿名访问，写接口需要登录；生成类接口额外限流
func RegisterV1Routes(v1 *gin.RouterGroup, authCfg middleware.AuthConfig, rateLimit gin.HandlerFunc, h *Handlers) {
	// 认证管理
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}

	// 当前用户
	me := v1.Group("/users/me", middleware.Auth(authCfg))
	{
		me.GET("", h.Auth.Me)
		me.GET("/books", h.Book.ListMyBooks)
		me.GET("/liked-books", h.Book.ListLikedBooks)
	}

	books := v1.Group("/books", middleware.OptionalAuth(authCfg))
	{
		books.GET("", h.Book.ListBooks)
		books.GET("/:id", h.Book.GetBook)
		books.GET("/:id/like", h.Social.GetLike)
		books.GET("/:id/comments", h.Social.ListComments)

		authed := books.Group("", middleware.RequireUser())
		{
			// 生成类接口
			authed.POST("", rateLimit, h.Book.CreateBook)
			authed.POST("/:id/chapters", rateLimit, h.Chapter.GenerateChapter)
			authed.POST("/:id/image", rateLimit, h.Book.RefreshImage)

			authed.DELETE("/:id", h.Book.DeleteBook)
			authed.DELETE("/:id/prologue", h.Chapter.DeletePrologue)

			authed.POST("/:id/like", h.Social.ToggleLike)
			authed.GET("/:id/rating", h.Social.GetRating)
			authed.POST("/:id/rating", h.Social.Rate)

			authed.POST("/:id/comments", h.Social.CreateComment)
			authed.PUT("/:id/comments/:cid", h.Social.UpdateComment)
			authed.DELETE("/:id/comments/:cid", h.Social.DeleteComment)
		}
	}
}
