// Package handlers 本地看板的 API 处理器。
// 引擎均为同步执行：前端点一下按钮对应一次完整运行，结果直接回传。
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hyprian/shopifyCRM/internal/config"
	"github.com/hyprian/shopifyCRM/internal/model"
	"github.com/hyprian/shopifyCRM/internal/service/report"
	"github.com/hyprian/shopifyCRM/internal/service/runner"
	"github.com/hyprian/shopifyCRM/internal/sheet"
	"github.com/hyprian/shopifyCRM/internal/store"
)

// Handlers API处理器
type Handlers struct {
	cfg   *config.AppConfig
	store *store.Store
}

// NewHandlers 创建处理器
func NewHandlers(cfg *config.AppConfig, st *store.Store) *Handlers {
	return &Handlers{cfg: cfg, store: st}
}

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// RegisterRoutes 注册 API 路由
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	// 运行引擎
	router.POST("/runs/distribute", h.RunDistribute)
	router.POST("/runs/reconcile", h.RunReconcile)
	router.POST("/runs/order-status", h.RunOrderStatus)
	// 运行历史
	router.GET("/runs", h.ListRuns)

	// 报告读取
	router.GET("/reports/assignment", h.GetAssignmentReport)
	router.GET("/reports/performance", h.GetPerformanceReport)

	// 业务配置
	router.GET("/settings", h.GetSettings)
	router.PUT("/settings", h.UpdateSettings)
}

// newRunner 每次请求重新加载业务配置，保证设置页的修改即时生效
func (h *Handlers) newRunner() (*runner.Runner, *config.Settings, error) {
	settings, err := config.LoadSettings(config.SettingsPath(h.cfg))
	if err != nil {
		return nil, nil, err
	}
	return runner.New(h.cfg, settings, h.store), settings, nil
}

// RunDistribute 执行一次分发
// POST /api/runs/distribute
func (h *Handlers) RunDistribute(c *gin.Context) {
	r, _, err := h.newRunner()
	if err != nil {
		errorResponse(c, 5001, err.Error())
		return
	}
	result, err := r.Distribute()
	if err != nil {
		errorResponse(c, 5002, err.Error())
		return
	}
	success(c, result)
}

// RunReconcile 执行一次对账
// POST /api/runs/reconcile，body 可选 {"date": "08-May-2025"}，缺省为今天
func (h *Handlers) RunReconcile(c *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	_ = c.ShouldBindJSON(&req)

	day := time.Now()
	if req.Date != "" {
		parsed, err := model.ParseSheetDate(req.Date)
		if err != nil {
			errorResponse(c, 1001, "日期参数无效："+err.Error())
			return
		}
		day = parsed
	}

	r, _, err := h.newRunner()
	if err != nil {
		errorResponse(c, 5001, err.Error())
		return
	}
	result, err := r.Reconcile(day)
	if err != nil {
		errorResponse(c, 5002, err.Error())
		return
	}
	success(c, result)
}

// RunOrderStatus 执行一次物流状态回填
// POST /api/runs/order-status
func (h *Handlers) RunOrderStatus(c *gin.Context) {
	r, _, err := h.newRunner()
	if err != nil {
		errorResponse(c, 5001, err.Error())
		return
	}
	result, err := r.OrderStatus()
	if err != nil {
		errorResponse(c, 5002, err.Error())
		return
	}
	success(c, result)
}

// ListRuns 运行历史
// GET /api/runs?kind=&limit=
func (h *Handlers) ListRuns(c *gin.Context) {
	kind := c.Query("kind")
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errorResponse(c, 1001, "limit 参数无效")
			return
		}
		limit = n
	}
	runs, err := h.store.ListRuns(kind, limit)
	if err != nil {
		errorResponse(c, 5003, err.Error())
		return
	}
	success(c, runs)
}

// reportBlock 读取指定日期的报告块
func (h *Handlers) reportBlock(c *gin.Context, sheetName func(*config.Settings) string, titlePrefix string, title, endMarker func(string) string) {
	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = model.FormatSheetDate(time.Now())
	} else if _, err := model.ParseSheetDate(dateStr); err != nil {
		errorResponse(c, 1001, "日期参数无效："+err.Error())
		return
	}

	settings, err := config.LoadSettings(config.SettingsPath(h.cfg))
	if err != nil {
		errorResponse(c, 5001, err.Error())
		return
	}

	wb, err := sheet.OpenWorkbook(settings.Reports.Workbook)
	if err != nil {
		errorResponse(c, 5004, "打开报告工作簿失败："+err.Error())
		return
	}
	defer wb.Close()

	reader := report.NewWriter(wb, sheetName(settings))
	lines, found, err := reader.ReadBlock(title(dateStr), titlePrefix, endMarker(dateStr))
	if err != nil {
		errorResponse(c, 5004, err.Error())
		return
	}
	if !found {
		errorResponse(c, 4004, "未找到 "+dateStr+" 的报告块")
		return
	}
	success(c, gin.H{"date": dateStr, "lines": lines})
}

// GetAssignmentReport 读当日分发报告块
// GET /api/reports/assignment?date=
func (h *Handlers) GetAssignmentReport(c *gin.Context) {
	h.reportBlock(c,
		func(s *config.Settings) string { return s.Reports.AssignmentSheet },
		report.AssignmentTitlePrefix,
		report.AssignmentTitle,
		report.AssignmentEndMarker,
	)
}

// GetPerformanceReport 读当日效能报告块
// GET /api/reports/performance?date=
func (h *Handlers) GetPerformanceReport(c *gin.Context) {
	h.reportBlock(c,
		func(s *config.Settings) string { return s.Reports.PerformanceSheet },
		report.PerformanceTitlePrefix,
		report.PerformanceTitle,
		report.PerformanceEndMarker,
	)
}

// GetSettings 读业务配置
// GET /api/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	settings, err := config.LoadSettings(config.SettingsPath(h.cfg))
	if err != nil {
		errorResponse(c, 5001, err.Error())
		return
	}
	success(c, settings)
}

// UpdateSettings 写业务配置（校验通过才落盘）
// PUT /api/settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var settings config.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		errorResponse(c, 1001, "参数错误")
		return
	}
	if err := config.SaveSettings(config.SettingsPath(h.cfg), &settings); err != nil {
		errorResponse(c, 5005, err.Error())
		return
	}
	success(c, settings)
}
