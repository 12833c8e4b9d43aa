// Package reconcile 对账引擎：读回当日分发报告拿到“已分配”计数，
// 再重扫各线索源，把当日分配的行按当前状态拆成已处理 / 未处理，
// 聚合结果状态直方图后写出效能报告块。
// 与分发引擎只通过表格衔接，进程内零耦合。
package reconcile

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hyprian/shopifyCRM/internal/model"
	"github.com/hyprian/shopifyCRM/internal/service/report"
	"github.com/hyprian/shopifyCRM/internal/sheet"
)

// Source 参与对账的一个线索源及其网格
type Source struct {
	Spec  model.SourceSpec
	Rules model.StatusRules
	Grid  sheet.Source
}

// Summary 单个接线人的对账汇总
// Assigned 来自分发报告的读回，Actioned/Pending 来自重扫；
// 两边对不上时差值只作为指标呈现，不触发失败
type Summary struct {
	AssignedTotal      int                       `json:"assigned_total"`
	AssignedByCategory map[string]int            `json:"assigned_by_category"`
	ActionedTotal      int                       `json:"actioned_total"`
	PendingTotal       int                       `json:"pending_total"`
	ActionedByCategory map[string]int            `json:"actioned_by_category"`
	PendingByCategory  map[string]int            `json:"pending_by_category"`
	Outcomes           map[string]map[string]int `json:"outcomes"`
}

// Discrepancy 已分配数与重扫归集数之差
func (s *Summary) Discrepancy() int {
	return s.AssignedTotal - (s.ActionedTotal + s.PendingTotal)
}

// SourceTally 单个线索源的重扫统计
type SourceTally struct {
	Name         string `json:"name"`
	RowsRead     int    `json:"rows_read"`
	Matched      int    `json:"matched"`
	SkippedBlank int    `json:"skipped_blank_category"`
	SkippedOther int    `json:"skipped_other"`
	Err          string `json:"error,omitempty"`
}

// Result 一次对账运行的结构化结果
type Result struct {
	Date            string              `json:"date"`
	Summaries       map[string]*Summary `json:"summaries"`
	Sources         []SourceTally       `json:"sources"`
	SkippedBlank    int                 `json:"skipped_blank_category"`
	SkippedOther    int                 `json:"skipped_other"`
	AssignmentFound bool                `json:"assignment_report_found"`
	Warnings        []string            `json:"warnings,omitempty"`
	ReportRow       int                 `json:"report_row"`
	ReportError     string              `json:"report_error,omitempty"`
}

// Engine 对账引擎（单线程批处理）
type Engine struct {
	sources     []Source
	roster      []model.Stakeholder
	assignment  *report.Writer
	performance *report.Writer
}

// NewEngine 创建对账引擎
// assignment 读当日分发报告块，performance 写效能报告块；
// performance 为 nil 时只汇总不写报告
func NewEngine(sources []Source, roster []model.Stakeholder, assignment, performance *report.Writer) *Engine {
	return &Engine{
		sources:     sources,
		roster:      roster,
		assignment:  assignment,
		performance: performance,
	}
}

// Run 对给定日期执行一次完整对账
func (e *Engine) Run(day time.Time) (*Result, error) {
	if len(e.roster) == 0 {
		return nil, errors.New("花名册为空，中止对账")
	}

	dateStr := model.FormatSheetDate(day)
	accepted := model.AcceptedDateStrings(day)
	log.Printf("对账日期 %s（边界比较同时接受写法 %v）", dateStr, accepted)

	res := &Result{
		Date:      dateStr,
		Summaries: make(map[string]*Summary, len(e.roster)),
	}
	for _, s := range e.roster {
		res.Summaries[s.Name] = newSummary(e.sources)
	}

	e.readAssignments(dateStr, res)

	for _, src := range e.sources {
		tally := e.scanSource(src, accepted, res.Summaries)
		res.Sources = append(res.Sources, tally)
		res.SkippedBlank += tally.SkippedBlank
		res.SkippedOther += tally.SkippedOther
	}
	log.Printf("重扫完成：初始类目空白跳过 %d 行，其他原因跳过 %d 行", res.SkippedBlank, res.SkippedOther)

	for _, s := range e.roster {
		sum := res.Summaries[s.Name]
		log.Printf("汇总 %s：已分配 %d，已处理 %d，未处理 %d（差值 %d）",
			s.Name, sum.AssignedTotal, sum.ActionedTotal, sum.PendingTotal, sum.Discrepancy())
	}

	if e.performance != nil {
		block := PerformanceBlock(dateStr, e.roster, res.Summaries, e.sources)
		row, err := e.performance.Upsert(block)
		if err != nil {
			log.Printf("写效能报告失败: %v", err)
			res.ReportError = err.Error()
		} else {
			res.ReportRow = row
		}
	}

	return res, nil
}

func newSummary(sources []Source) *Summary {
	sum := &Summary{
		AssignedByCategory: make(map[string]int),
		ActionedByCategory: make(map[string]int),
		PendingByCategory:  make(map[string]int),
		Outcomes:           make(map[string]map[string]int, len(sources)),
	}
	for _, cat := range model.ReportCategoryOrder {
		sum.AssignedByCategory[cat] = 0
		sum.ActionedByCategory[cat] = 0
		sum.PendingByCategory[cat] = 0
	}
	sum.ActionedByCategory[model.CategoryUnknown] = 0
	sum.PendingByCategory[model.CategoryUnknown] = 0
	for _, src := range sources {
		hist := make(map[string]int, len(src.Rules.Outcomes)+1)
		for _, status := range src.Rules.Outcomes {
			hist[status] = 0
		}
		if src.Rules.OtherOutcome != "" {
			hist[src.Rules.OtherOutcome] = 0
		}
		sum.Outcomes[src.Spec.Name] = hist
	}
	return sum
}

// readAssignments 读回当日分发报告块并填入各接线人的已分配计数
// 块缺失或解析异常不中断对账：已分配按零计，差值自会显出来
func (e *Engine) readAssignments(dateStr string, res *Result) {
	if e.assignment == nil {
		return
	}
	lines, found, err := e.assignment.ReadBlock(
		report.AssignmentTitle(dateStr), report.AssignmentTitlePrefix, report.AssignmentEndMarker(dateStr))
	if err != nil {
		log.Printf("读分发报告失败，已分配计数按零处理: %v", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("读分发报告失败: %v", err))
		return
	}
	if !found {
		log.Printf("未找到 %s 的分发报告块，已分配计数按零处理", dateStr)
		res.Warnings = append(res.Warnings, fmt.Sprintf("未找到 %s 的分发报告块", dateStr))
		return
	}
	res.AssignmentFound = true

	counts, warnings := report.ParseAssignmentBlock(lines, e.roster, model.ReportCategoryOrder)
	for _, w := range warnings {
		log.Printf("分发报告解析: %s", w)
	}
	res.Warnings = append(res.Warnings, warnings...)
	for name, sum := range res.Summaries {
		sum.AssignedTotal = counts.Totals[name]
		for cat, n := range counts.ByCategory[name] {
			sum.AssignedByCategory[cat] = n
		}
	}
}

func (e *Engine) scanSource(src Source, accepted []string, summaries map[string]*Summary) SourceTally {
	tally := SourceTally{Name: src.Spec.Name}

	rows, err := src.Grid.ReadAll(src.Spec.Sheet)
	if err != nil {
		log.Printf("线索源 %s 读取失败，跳过该源: %v", src.Spec.Name, err)
		tally.Err = err.Error()
		return tally
	}
	if len(rows) < src.Spec.HeaderRow {
		tally.Err = fmt.Sprintf("行数不足：表头应在第 %d 行，实际只有 %d 行", src.Spec.HeaderRow, len(rows))
		log.Printf("线索源 %s %s", src.Spec.Name, tally.Err)
		return tally
	}

	header := rows[src.Spec.HeaderRow-1]
	cols := src.Spec.Columns

	stakeholderIdx := sheet.ColumnIndex(header, cols.Stakeholder)
	statusIdx := sheet.ColumnIndex(header, cols.Status)
	categoryIdx := sheet.ColumnIndex(header, cols.InitialCategory)
	date1Idx := sheet.ColumnIndex(header, cols.Date1)
	if stakeholderIdx < 0 || statusIdx < 0 || categoryIdx < 0 || date1Idx < 0 {
		tally.Err = "表头缺少对账必需列（接线人/状态/初始类目/日期1 之一）"
		log.Printf("线索源 %s %s，跳过该源", src.Spec.Name, tally.Err)
		return tally
	}
	date2Idx := sheet.ColumnIndex(header, cols.Date2)
	date3Idx := sheet.ColumnIndex(header, cols.Date3)

	known := make(map[string]bool, len(e.roster))
	for _, s := range e.roster {
		known[s.Name] = true
	}

	matchesDay := func(row []string, idx int) bool {
		if idx < 0 || idx >= len(row) {
			return false
		}
		cell := model.NormalizeStatus(row[idx])
		for _, s := range accepted {
			if cell == s {
				return true
			}
		}
		return false
	}

	for i := src.Spec.DataStartRow - 1; i < len(rows); i++ {
		rowNum := i + 1
		// GetRows 会裁掉行尾的空单元格，先补齐再按下标取值
		row := sheet.PadRow(rows[i], len(header))
		tally.RowsRead++

		name := model.NormalizeStatus(row[stakeholderIdx])
		if name == "" || !known[name] {
			tally.SkippedOther++
			continue
		}
		if !matchesDay(row, date1Idx) && !matchesDay(row, date2Idx) && !matchesDay(row, date3Idx) {
			tally.SkippedOther++
			continue
		}
		tally.Matched++

		status := model.NormalizeStatus(row[statusIdx])
		category := model.NormalizeStatus(row[categoryIdx])
		if category == "" {
			// 初始类目空白无从判定归属，计入显式跳过口径
			log.Printf("线索源 %s 第 %d 行初始类目空白，跳过归集", src.Spec.Name, rowNum)
			tally.SkippedBlank++
			continue
		}

		sum := summaries[name]
		catKey := category
		if _, ok := sum.ActionedByCategory[category]; !ok {
			log.Printf("线索源 %s 第 %d 行初始类目 %q 不在固定类目内，按 Unknown 归集", src.Spec.Name, rowNum, category)
			catKey = model.CategoryUnknown
		}

		// 认不出的类目按 Unknown 的未处理口径（全部未处理状态的并集）判定
		if src.Rules.IsPending(catKey, status) {
			sum.PendingTotal++
			sum.PendingByCategory[catKey]++
			continue
		}
		sum.ActionedTotal++
		sum.ActionedByCategory[catKey]++

		hist := sum.Outcomes[src.Spec.Name]
		if _, ok := hist[status]; ok {
			hist[status]++
		} else if src.Rules.OtherOutcome != "" {
			hist[src.Rules.OtherOutcome]++
		}
	}

	log.Printf("线索源 %s 重扫完成：读 %d 行，命中当日 %d，空白类目跳过 %d，其他跳过 %d",
		src.Spec.Name, tally.RowsRead, tally.Matched, tally.SkippedBlank, tally.SkippedOther)
	return tally
}
