package distribute

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hyprian/shopifyCRM/internal/model"
	"github.com/hyprian/shopifyCRM/internal/service/report"
	"github.com/hyprian/shopifyCRM/internal/sheet"
)

// Source 参与分发的一个线索源及其网格
type Source struct {
	Spec  model.SourceSpec
	Rules model.StatusRules
	Grid  sheet.Source
}

// SourceResult 单个线索源的处理结果
type SourceResult struct {
	Name              string   `json:"name"`
	RowsRead          int      `json:"rows_read"`
	Eligible          int      `json:"eligible"`
	Assigned          int      `json:"assigned"`
	SkippedNoCapacity int      `json:"skipped_no_capacity"`
	CellsWritten      int      `json:"cells_written"`
	MissingColumns    []string `json:"missing_columns,omitempty"`
	Err               string   `json:"error,omitempty"`
}

// Result 一次分发运行的结构化结果
// 包装层（CLI / 服务端）凭它判断成败并落运行库，不需要解析日志
type Result struct {
	Date        string                               `json:"date"`
	Sources     []SourceResult                       `json:"sources"`
	Counters    map[string]*model.AssignmentCounters `json:"counters"`
	ReportRow   int                                  `json:"report_row"`
	ReportError string                               `json:"report_error,omitempty"`
}

// TotalAssigned 本次运行的总分配数
func (r *Result) TotalAssigned() int {
	total := 0
	for _, s := range r.Sources {
		total += s.Assigned
	}
	return total
}

// Engine 分发引擎
// 单线程批处理：逐源顺序处理，分配器的用量与游标跨源共享
type Engine struct {
	sources []Source
	roster  []model.Stakeholder
	report  *report.Writer
	now     func() time.Time
}

// NewEngine 创建分发引擎
// reportWriter 为 nil 时不写分发报告（部分测试场景）
func NewEngine(sources []Source, roster []model.Stakeholder, reportWriter *report.Writer) *Engine {
	return &Engine{
		sources: sources,
		roster:  roster,
		report:  reportWriter,
		now:     time.Now,
	}
}

// SetNow 固定时钟（测试用）
func (e *Engine) SetNow(now func() time.Time) {
	e.now = now
}

// Run 执行一次完整分发
// 单个源读失败只影响该源（计数保持全零），其余源照常处理；
// 花名册为空属配置错误，先于任何写入中止
func (e *Engine) Run() (*Result, error) {
	if len(e.roster) == 0 {
		return nil, errors.New("花名册为空，中止分发")
	}

	today := model.FormatSheetDate(e.now())
	alloc := NewAllocator(e.roster)

	res := &Result{
		Date:     today,
		Counters: make(map[string]*model.AssignmentCounters, len(e.roster)),
	}
	for _, s := range e.roster {
		res.Counters[s.Name] = model.NewAssignmentCounters()
	}

	for _, src := range e.sources {
		sr := e.processSource(src, alloc, today, res.Counters)
		res.Sources = append(res.Sources, sr)
	}

	if e.report != nil {
		block := report.AssignmentBlock(today, e.roster, res.Counters)
		row, err := e.report.Upsert(block)
		if err != nil {
			// 分配已落表，报告写失败记录为结果的一部分，不吞掉已有进展
			log.Printf("写分发报告失败: %v", err)
			res.ReportError = err.Error()
		} else {
			res.ReportRow = row
		}
	}

	return res, nil
}

func (e *Engine) processSource(src Source, alloc *Allocator, today string, counters map[string]*model.AssignmentCounters) SourceResult {
	sr := SourceResult{Name: src.Spec.Name}

	rows, err := src.Grid.ReadAll(src.Spec.Sheet)
	if err != nil {
		log.Printf("线索源 %s 读取失败，跳过该源: %v", src.Spec.Name, err)
		sr.Err = err.Error()
		return sr
	}
	if len(rows) < src.Spec.HeaderRow {
		sr.Err = fmt.Sprintf("行数不足：表头应在第 %d 行，实际只有 %d 行", src.Spec.HeaderRow, len(rows))
		log.Printf("线索源 %s %s", src.Spec.Name, sr.Err)
		return sr
	}

	header := rows[src.Spec.HeaderRow-1]
	cols := src.Spec.Columns

	statusIdx := sheet.ColumnIndex(header, cols.Status)
	if statusIdx < 0 {
		// 状态列缺失无从过滤，这属于该源的配置错误；只隔离本源
		sr.Err = fmt.Sprintf("表头缺少状态列 %q", cols.Status)
		log.Printf("线索源 %s %s，跳过该源", src.Spec.Name, sr.Err)
		return sr
	}

	// 可写列允许缺失：缺哪列就跳过哪列的写入，运行继续
	writeIdx := map[string]int{}
	for _, name := range []string{cols.Stakeholder, cols.Date1, cols.Date2, cols.Date3, cols.InitialCategory} {
		if name == "" {
			continue
		}
		idx := sheet.ColumnIndex(header, name)
		if idx < 0 {
			log.Printf("线索源 %s 表头缺少列 %q，该列不写入", src.Spec.Name, name)
			sr.MissingColumns = append(sr.MissingColumns, name)
			continue
		}
		writeIdx[name] = idx
	}

	classifier := NewClassifier(src.Rules)
	var updates []sheet.CellUpdate
	appendCell := func(rowNum int, colName, value string) {
		if idx, ok := writeIdx[colName]; ok {
			updates = append(updates, sheet.CellUpdate{Row: rowNum, Col: idx + 1, Value: value})
		}
	}

	for i := src.Spec.DataStartRow - 1; i < len(rows); i++ {
		rowNum := i + 1
		row := sheet.PadRow(rows[i], len(header))
		sr.RowsRead++

		status := row[statusIdx]
		category, eligible := classifier.Classify(status)
		if !eligible {
			continue
		}
		sr.Eligible++

		name, ok := alloc.Assign()
		if !ok {
			// 全员满额：整行保持原样，不写回
			sr.SkippedNoCapacity++
			continue
		}

		var dates [model.AttemptSlots]string
		for slot := 1; slot <= model.AttemptSlots; slot++ {
			if idx, ok := writeIdx[cols.DateColumn(slot)]; ok {
				dates[slot-1] = row[idx]
			}
		}
		decision := NextSlot(classifier.Retry(status), dates)

		appendCell(rowNum, cols.Stakeholder, name)
		if decision.Slot > 0 {
			appendCell(rowNum, cols.DateColumn(decision.Slot), today)
			if decision.ClearRest {
				for slot := decision.Slot + 1; slot <= model.AttemptSlots; slot++ {
					appendCell(rowNum, cols.DateColumn(slot), "")
				}
			}
		}
		appendCell(rowNum, cols.InitialCategory, category)

		counters[name].Total++
		counters[name].ByCategory[category]++
		sr.Assigned++
	}

	if len(updates) > 0 {
		written, err := src.Grid.BatchWrite(src.Spec.Sheet, updates)
		sr.CellsWritten = written
		if err != nil {
			log.Printf("线索源 %s 批量写回失败: %v", src.Spec.Name, err)
			sr.Err = err.Error()
		}
	}
	log.Printf("线索源 %s 处理完成：读 %d 行，可分配 %d，已分配 %d，满额跳过 %d，写回 %d 格",
		src.Spec.Name, sr.RowsRead, sr.Eligible, sr.Assigned, sr.SkippedNoCapacity, sr.CellsWritten)
	return sr
}
