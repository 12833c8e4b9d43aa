// Package server 本地看板 HTTP 服务。
package server

import (
	"log"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/hyprian/shopifyCRM/internal/config"
	"github.com/hyprian/shopifyCRM/internal/server/handlers"
	"github.com/hyprian/shopifyCRM/internal/store"
)

const indexPage = `<!DOCTYPE html>
<html lang="zh">
<head><meta charset="utf-8"><title>shopifyCRM</title></head>
<body>
<h1>shopifyCRM</h1>
<p>线索分发与对账看板。接口一览：</p>
<ul>
<li>POST /api/runs/distribute</li>
<li>POST /api/runs/reconcile</li>
<li>POST /api/runs/order-status</li>
<li>GET /api/runs</li>
<li>GET /api/reports/assignment?date=DD-Mon-YYYY</li>
<li>GET /api/reports/performance?date=DD-Mon-YYYY</li>
<li>GET /api/settings · PUT /api/settings</li>
</ul>
</body>
</html>`

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化 SQLite Store
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		dataDir = cfg.Data.DataDir
	}
	dbPath := filepath.Join(dataDir, "shopifycrm.db")

	sqliteStore, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	s := &Server{
		router: gin.Default(),
		store:  sqliteStore,
	}

	s.setupRoutes(handlers.NewHandlers(cfg, sqliteStore))

	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(h *handlers.Handlers) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// API 路由
	api := s.router.Group("/api")
	{
		h.RegisterRoutes(api)
	}

	// 首页
	s.router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
	})
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 释放资源
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
