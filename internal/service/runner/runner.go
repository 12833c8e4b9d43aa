// Package runner 负责一次完整运行的编排：
// 打开工作簿（按路径去重）、装配引擎、执行、统一落盘、写运行历史。
// CLI 子命令和服务端接口共用这一层，引擎本身不碰文件系统与数据库。
package runner

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hyprian/shopifyCRM/internal/config"
	"github.com/hyprian/shopifyCRM/internal/model"
	"github.com/hyprian/shopifyCRM/internal/service/distribute"
	"github.com/hyprian/shopifyCRM/internal/service/reconcile"
	"github.com/hyprian/shopifyCRM/internal/service/report"
	"github.com/hyprian/shopifyCRM/internal/service/status"
	"github.com/hyprian/shopifyCRM/internal/sheet"
	"github.com/hyprian/shopifyCRM/internal/store"
)

// 运行类型
const (
	KindDistribute  = "distribute"
	KindReconcile   = "reconcile"
	KindOrderStatus = "order-status"
)

// Runner 运行编排器
type Runner struct {
	cfg      *config.AppConfig
	settings *config.Settings
	store    *store.Store
}

// New 创建编排器（store 为 nil 时不写运行历史）
func New(cfg *config.AppConfig, settings *config.Settings, st *store.Store) *Runner {
	return &Runner{cfg: cfg, settings: settings, store: st}
}

// workbookSet 按路径去重的工作簿集合
// 同一路径的多张表共用一个句柄，避免各存各的互相覆盖
type workbookSet struct {
	books map[string]*sheet.Workbook
}

func newWorkbookSet() *workbookSet {
	return &workbookSet{books: make(map[string]*sheet.Workbook)}
}

func (ws *workbookSet) open(path string, createIfMissing bool) (*sheet.Workbook, error) {
	key := filepath.Clean(path)
	if wb, ok := ws.books[key]; ok {
		return wb, nil
	}
	var (
		wb  *sheet.Workbook
		err error
	)
	if createIfMissing {
		wb, err = sheet.OpenOrCreateWorkbook(path)
	} else {
		wb, err = sheet.OpenWorkbook(path)
	}
	if err != nil {
		return nil, err
	}
	ws.books[key] = wb
	return wb, nil
}

func (ws *workbookSet) saveAll() error {
	for path, wb := range ws.books {
		if err := wb.Save(); err != nil {
			return fmt.Errorf("保存工作簿 %s 失败: %w", path, err)
		}
	}
	return nil
}

func (ws *workbookSet) closeAll() {
	for path, wb := range ws.books {
		if err := wb.Close(); err != nil {
			log.Printf("关闭工作簿 %s 失败: %v", path, err)
		}
	}
}

// Distribute 执行一次分发
func (r *Runner) Distribute() (*distribute.Result, error) {
	started := time.Now()
	ws := newWorkbookSet()
	defer ws.closeAll()

	sources := r.openSources(ws)
	reportBook, err := ws.open(r.settings.Reports.Workbook, true)
	if err != nil {
		err = fmt.Errorf("打开报告工作簿失败: %w", err)
		r.record(KindDistribute, started, nil, err)
		return nil, err
	}

	var engineSources []distribute.Source
	for _, s := range sources {
		engineSources = append(engineSources, distribute.Source(s))
	}
	writer := report.NewWriter(reportBook, r.settings.Reports.AssignmentSheet)
	engine := distribute.NewEngine(engineSources, r.settings.Stakeholders, writer)

	result, err := engine.Run()
	if err == nil {
		err = ws.saveAll()
	}
	r.record(KindDistribute, started, result, err)
	return result, err
}

// Reconcile 对给定日期执行一次对账
func (r *Runner) Reconcile(day time.Time) (*reconcile.Result, error) {
	started := time.Now()
	ws := newWorkbookSet()
	defer ws.closeAll()

	sources := r.openSources(ws)
	reportBook, err := ws.open(r.settings.Reports.Workbook, true)
	if err != nil {
		err = fmt.Errorf("打开报告工作簿失败: %w", err)
		r.record(KindReconcile, started, nil, err)
		return nil, err
	}

	var engineSources []reconcile.Source
	for _, s := range sources {
		engineSources = append(engineSources, reconcile.Source(s))
	}
	assignment := report.NewWriter(reportBook, r.settings.Reports.AssignmentSheet)
	performance := report.NewWriter(reportBook, r.settings.Reports.PerformanceSheet)
	engine := reconcile.NewEngine(engineSources, r.settings.Stakeholders, assignment, performance)

	result, err := engine.Run(day)
	if err == nil {
		err = ws.saveAll()
	}
	r.record(KindReconcile, started, result, err)
	return result, err
}

// OrderStatus 执行一次物流状态回填
// 取第一个配置了订单号列的线索源作为订单表
func (r *Runner) OrderStatus() (*status.Result, error) {
	started := time.Now()
	ws := newWorkbookSet()
	defer ws.closeAll()

	var spec *model.SourceSpec
	for i := range r.settings.Sources {
		if r.settings.Sources[i].Columns.OrderName != "" && r.settings.Sources[i].Columns.OrderStatus != "" {
			spec = &r.settings.Sources[i]
			break
		}
	}
	if spec == nil {
		err := fmt.Errorf("没有线索源配置了订单号列和物流状态列，无法回填")
		r.record(KindOrderStatus, started, nil, err)
		return nil, err
	}

	wb, err := ws.open(spec.Workbook, false)
	if err != nil {
		err = fmt.Errorf("打开线索源 %s 的工作簿失败: %w", spec.Name, err)
		r.record(KindOrderStatus, started, nil, err)
		return nil, err
	}

	engine := status.NewEngine(*spec, wb)
	result, err := engine.Run(r.cfg.Files.MasterCSV)
	if err == nil {
		err = ws.saveAll()
	}
	r.record(KindOrderStatus, started, result, err)
	return result, err
}

type openedSource struct {
	Spec  model.SourceSpec
	Rules model.StatusRules
	Grid  sheet.Source
}

// errorGrid 打不开工作簿的线索源占位：所有操作都返回打开时的错误
// 引擎据此把该源按不可读隔离（计数全零），兄弟源照常处理
type errorGrid struct {
	err error
}

func (g errorGrid) ReadAll(string) ([][]string, error) { return nil, g.err }

func (g errorGrid) ReadColumn(string, int) ([]string, error) { return nil, g.err }

func (g errorGrid) BatchWrite(string, []sheet.CellUpdate) (int, error) { return 0, g.err }

func (g errorGrid) ClearRange(string, int, int, int, int) error { return g.err }

func (g errorGrid) CreateSheet(string) error { return g.err }

func (r *Runner) openSources(ws *workbookSet) []openedSource {
	var out []openedSource
	for _, spec := range r.settings.Sources {
		var grid sheet.Source
		wb, err := ws.open(spec.Workbook, false)
		if err != nil {
			log.Printf("打开线索源 %s 的工作簿失败，该源按不可读处理: %v", spec.Name, err)
			grid = errorGrid{err: fmt.Errorf("打开工作簿失败: %w", err)}
		} else {
			grid = wb
		}
		out = append(out, openedSource{
			Spec:  spec,
			Rules: model.RulesFor(spec.Rules),
			Grid:  grid,
		})
	}
	return out
}

// record 写运行历史（没有 store 或写入失败只打日志，不影响运行结果）
func (r *Runner) record(kind string, started time.Time, result any, runErr error) {
	if r.store == nil {
		return
	}
	summary := "{}"
	if result != nil {
		summary = store.BuildSummaryJSON(result)
	} else if runErr != nil {
		summary = store.BuildSummaryJSON(map[string]string{"error": runErr.Error()})
	}
	rec := store.RunRecord{
		ID:         uuid.NewString(),
		Kind:       kind,
		StartedAt:  started,
		FinishedAt: time.Now(),
		OK:         runErr == nil,
		Summary:    summary,
	}
	if err := r.store.InsertRun(rec); err != nil {
		log.Printf("写运行历史失败: %v", err)
	}
}
