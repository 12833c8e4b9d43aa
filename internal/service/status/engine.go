// Package status 订单物流状态回填：
// 把快递主表 CSV 里的物流状态映射后写回订单表的 order status 列。
// 只动呼叫状态已是 Confirmed / Prepaid 的行，按订单号关联。
package status

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hyprian/shopifyCRM/internal/model"
	"github.com/hyprian/shopifyCRM/internal/sheet"
)

// DefaultCallStatuses 参与回填的呼叫状态
var DefaultCallStatuses = []string{"Confirmed", "Prepaid"}

// DefaultStatusMapping 快递 CSV 状态 → 订单表下拉值
// 不在映射里的 CSV 状态整行忽略
var DefaultStatusMapping = map[string]string{
	"DELIVERED":        "Delivered",
	"RTO":              "RTO",
	"RTO_INITIATED":    "RTO",
	"OUT_FOR_DELIVERY": "Out for delivery",
	"SHIPPED":          "In-transit",
	"PACKED":           "Pending pick up",
}

// CSV 主表的固定列名
const (
	csvOrderNameColumn   = "Order Name"
	csvOrderStatusColumn = "Order Status"
)

// Result 一次回填运行的结构化结果
type Result struct {
	RowsRead       int `json:"rows_read"`
	Eligible       int `json:"eligible"`
	CSVRows        int `json:"csv_rows"`
	CSVRelevant    int `json:"csv_relevant"`
	Updated        int `json:"updated"`
	SkippedNoName  int `json:"skipped_no_name"`
	SkippedNoMatch int `json:"skipped_no_match"`
	SkippedCurrent int `json:"skipped_already_current"`
	CellsWritten   int `json:"cells_written"`
}

// Engine 状态回填引擎
type Engine struct {
	spec         model.SourceSpec
	grid         sheet.Source
	callStatuses map[string]bool
	mapping      map[string]string
}

// NewEngine 创建回填引擎（订单源需配置 order_name / order_status 列）
func NewEngine(spec model.SourceSpec, grid sheet.Source) *Engine {
	eligible := make(map[string]bool, len(DefaultCallStatuses))
	for _, s := range DefaultCallStatuses {
		eligible[s] = true
	}
	return &Engine{
		spec:         spec,
		grid:         grid,
		callStatuses: eligible,
		mapping:      DefaultStatusMapping,
	}
}

// Run 执行一次回填
// 订单表不可读、CSV 不可读、必需列缺失均属配置级失败直接报错；
// 单行异常只跳过并计数
func (e *Engine) Run(csvPath string) (*Result, error) {
	res := &Result{}

	rows, err := e.grid.ReadAll(e.spec.Sheet)
	if err != nil {
		return nil, fmt.Errorf("读取订单表失败: %w", err)
	}
	if len(rows) < e.spec.HeaderRow {
		return nil, fmt.Errorf("订单表行数不足：表头应在第 %d 行，实际只有 %d 行", e.spec.HeaderRow, len(rows))
	}

	header := rows[e.spec.HeaderRow-1]
	cols := e.spec.Columns
	nameIdx := sheet.ColumnIndex(header, cols.OrderName)
	callIdx := sheet.ColumnIndex(header, cols.Status)
	statusIdx := sheet.ColumnIndex(header, cols.OrderStatus)
	if nameIdx < 0 || callIdx < 0 || statusIdx < 0 {
		return nil, fmt.Errorf("订单表表头缺少回填必需列（%q / %q / %q 之一）",
			cols.OrderName, cols.Status, cols.OrderStatus)
	}

	csvStatus, err := e.loadMasterCSV(csvPath, res)
	if err != nil {
		return nil, err
	}

	var updates []sheet.CellUpdate
	for i := e.spec.DataStartRow - 1; i < len(rows); i++ {
		rowNum := i + 1
		row := sheet.PadRow(rows[i], len(header))
		res.RowsRead++

		if !e.callStatuses[row[callIdx]] {
			continue
		}
		res.Eligible++

		name := row[nameIdx]
		if name == "" {
			res.SkippedNoName++
			continue
		}
		mapped, ok := csvStatus[name]
		if !ok {
			res.SkippedNoMatch++
			continue
		}
		if row[statusIdx] == mapped {
			res.SkippedCurrent++
			continue
		}

		updates = append(updates, sheet.CellUpdate{Row: rowNum, Col: statusIdx + 1, Value: mapped})
		log.Printf("订单 %s（第 %d 行）物流状态更新为 %q", name, rowNum, mapped)
	}

	if len(updates) > 0 {
		written, err := e.grid.BatchWrite(e.spec.Sheet, updates)
		res.CellsWritten = written
		if err != nil {
			return res, fmt.Errorf("批量写回订单表失败: %w", err)
		}
	}
	res.Updated = len(updates)
	log.Printf("状态回填完成：读 %d 行，待回填 %d，实际更新 %d（无订单号 %d，CSV 无匹配 %d，已是目标值 %d）",
		res.RowsRead, res.Eligible, res.Updated, res.SkippedNoName, res.SkippedNoMatch, res.SkippedCurrent)
	return res, nil
}

// loadMasterCSV 读快递主表，返回 订单号 → 映射后状态
// 同一订单号出现多次时第一条生效；状态不在映射里的行忽略
func (e *Engine) loadMasterCSV(path string, res *Result) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开主表 CSV 失败: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("读取 CSV 表头失败: %w", err)
	}
	nameIdx := sheet.ColumnIndex(header, csvOrderNameColumn)
	statusIdx := sheet.ColumnIndex(header, csvOrderStatusColumn)
	if nameIdx < 0 || statusIdx < 0 {
		return nil, fmt.Errorf("CSV 表头缺少 %q 或 %q 列", csvOrderNameColumn, csvOrderStatusColumn)
	}

	out := make(map[string]string)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取 CSV 记录失败: %w", err)
		}
		res.CSVRows++
		if nameIdx >= len(record) || statusIdx >= len(record) {
			continue
		}
		name := model.NormalizeStatus(record[nameIdx])
		raw := model.NormalizeStatus(record[statusIdx])
		mapped, ok := e.mapping[raw]
		if !ok || name == "" {
			continue
		}
		res.CSVRelevant++
		if _, exists := out[name]; !exists {
			out[name] = mapped
		}
	}
	log.Printf("主表 CSV 读取完成：共 %d 行，状态在映射内 %d 行", res.CSVRows, res.CSVRelevant)
	return out, nil
}
