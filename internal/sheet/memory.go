package sheet

import (
	"fmt"
	"sync"
)

// Memory 内存网格数据源
// 测试里用它替代工作簿；行为对齐 Workbook：1 基行列、锯齿行、哨兵错误
type Memory struct {
	mu     sync.RWMutex
	sheets map[string][][]string

	// FailRead 非空时 ReadAll/ReadColumn 对该表返回此错误（模拟源不可用）
	FailRead map[string]error
	// FailCreate 为 true 时 CreateSheet 失败（模拟建表被拒）
	FailCreate bool
}

// NewMemory 创建空的内存数据源
func NewMemory() *Memory {
	return &Memory{
		sheets:   make(map[string][][]string),
		FailRead: make(map[string]error),
	}
}

// Seed 整表置入数据（测试初始化用）
func (m *Memory) Seed(sheet string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]string, len(rows))
	for i, row := range rows {
		cp[i] = append([]string(nil), row...)
	}
	m.sheets[sheet] = cp
}

// Rows 返回当前表内容（测试断言用）
func (m *Memory) Rows(sheet string) [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sheets[sheet]
}

// Cell 返回单元格当前值（行列 1 基，越界返回空串）
func (m *Memory) Cell(sheet string, row, col int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.sheets[sheet]
	if row-1 >= len(rows) {
		return ""
	}
	r := rows[row-1]
	if col-1 >= len(r) {
		return ""
	}
	return r[col-1]
}

// ReadAll 读取整张表
func (m *Memory) ReadAll(sheet string) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.FailRead[sheet]; err != nil {
		return nil, err
	}
	rows, ok := m.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	cp := make([][]string, len(rows))
	for i, row := range rows {
		cp[i] = append([]string(nil), row...)
	}
	return cp, nil
}

// ReadColumn 仅读取第 col 列
func (m *Memory) ReadColumn(sheet string, col int) ([]string, error) {
	rows, err := m.ReadAll(sheet)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		if col-1 < len(row) {
			out[i] = row[col-1]
		}
	}
	last := 0
	for i, v := range out {
		if v != "" {
			last = i + 1
		}
	}
	return out[:last], nil
}

// BatchWrite 批量写入单元格，按需扩展网格
func (m *Memory) BatchWrite(sheet string, updates []CellUpdate) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.sheets[sheet]
	if !ok {
		return 0, fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	for _, u := range updates {
		for len(rows) < u.Row {
			rows = append(rows, []string{})
		}
		row := rows[u.Row-1]
		for len(row) < u.Col {
			row = append(row, "")
		}
		row[u.Col-1] = u.Value
		rows[u.Row-1] = row
	}
	m.sheets[sheet] = rows
	return len(updates), nil
}

// ClearRange 清空矩形区域
func (m *Memory) ClearRange(sheet string, startRow, endRow, startCol, endCol int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.sheets[sheet]
	if !ok {
		return fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	for r := startRow; r <= endRow && r-1 < len(rows); r++ {
		row := rows[r-1]
		for c := startCol; c <= endCol && c-1 < len(row); c++ {
			row[c-1] = ""
		}
	}
	return nil
}

// CreateSheet 创建工作表
func (m *Memory) CreateSheet(sheet string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate {
		return fmt.Errorf("创建工作表 %s 被拒绝", sheet)
	}
	if _, ok := m.sheets[sheet]; !ok {
		m.sheets[sheet] = [][]string{}
	}
	return nil
}
