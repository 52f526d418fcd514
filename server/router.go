package server

import (
	"fmt"
	"os"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/wavehq/hrbridge/server/response"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if s.Config.AccessControlAllowOrigin != "" {
		corsConfig.AllowOrigins = []string{s.Config.AccessControlAllowOrigin}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	// the storage provider is transaction-capped; throttle uploads before
	// they reach it
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 30,
	})
	uploadLimiter := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			response.JSON(c, "too many uploads, slow down", 429, nil, nil)
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/signup", s.handleSignup())
	apirouter.POST("/auth/login", s.handleLogin())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/me", s.handleShowProfile())

	authorized.POST("/attachments/upload", uploadLimiter, s.handleUploadAttachment())
	authorized.POST("/attachments/presigned-url", s.handlePresignedURL())
	authorized.POST("/attachments/download", s.handleDownloadAttachment())

	authorized.POST("/conversations/open", s.handleOpenConversation())
	authorized.GET("/conversations", s.handleListConversations())
	authorized.GET("/conversations/:id/messages", s.handleListMessages())
	authorized.POST("/conversations/:id/messages", s.handleSendMessage())
	authorized.DELETE("/conversations/:id/messages/:messageID", s.handleDeleteMessage())
	authorized.GET("/conversations/:id/ws", s.handleMessageStream())
	authorized.GET("/ws/conversations", s.handleConversationStream())

	hr := authorized.Group("/")
	hr.Use(s.RequireHR())
	hr.POST("/users", s.handleCreateUser())
	hr.GET("/roster/ws", s.handleRosterStream())
	hr.POST("/feedback", s.handleSubmitFeedback())
	hr.PUT("/feedback/:id", s.handleUpdateFeedback())
	hr.DELETE("/feedback/:id", s.handleDeleteFeedback())

	authorized.GET("/feedback", s.handleListFeedback())
}
