package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Server HTTPサーバー
type Server struct {
	router  *gin.Engine
	handler *Handler
}

// NewServer はサーバーを生成する
//
// devMode が false の場合は gin をリリースモードで動かす。
func NewServer(h *Handler, log *logrus.Logger, devMode bool) *Server {
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	s := &Server{
		router:  router,
		handler: h,
	}
	s.setupRoutes()
	return s
}

// setupRoutes はルートを設定する
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		s.handler.RegisterRoutes(api)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// requestLogger はリクエストごとに1行のアクセスログを出力する
func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

// Handler は http.Handler を返す（テスト用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はサーバーを起動する
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
