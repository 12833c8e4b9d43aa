package sheet

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// Workbook 基于本地 xlsx 文件的 Source 实现
// 工作簿就是数据库：读写都落在同一个文件上，调用方在一次运行结束后 Save
type Workbook struct {
	path string
	file *excelize.File
}

// OpenWorkbook 打开已存在的工作簿
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("打开工作簿 %s 失败: %w", path, err)
	}
	return &Workbook{path: path, file: f}, nil
}

// OpenOrCreateWorkbook 打开工作簿，文件不存在时新建
// 报告工作簿首次运行前往往还没有，走这条路径
func OpenOrCreateWorkbook(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("检查工作簿 %s 失败: %w", path, err)
		}
		return &Workbook{path: path, file: excelize.NewFile()}, nil
	}
	return OpenWorkbook(path)
}

// Path 工作簿文件路径
func (w *Workbook) Path() string {
	return w.path
}

// Save 把全部修改写回磁盘
func (w *Workbook) Save() error {
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("保存工作簿 %s 失败: %w", w.path, err)
	}
	return nil
}

// Close 关闭底层文件
func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) sheetExists(sheet string) bool {
	idx, err := w.file.GetSheetIndex(sheet)
	return err == nil && idx >= 0
}

// ReadAll 读取整张表
func (w *Workbook) ReadAll(sheet string) ([][]string, error) {
	if !w.sheetExists(sheet) {
		return nil, fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %s 失败: %w", sheet, err)
	}
	return rows, nil
}

// ReadColumn 仅读取第 col 列
func (w *Workbook) ReadColumn(sheet string, col int) ([]string, error) {
	rows, err := w.ReadAll(sheet)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		if col-1 < len(row) {
			out[i] = row[col-1]
		}
	}
	// 去掉尾部全空行，行数以最后一个非空行为准
	last := 0
	for i, v := range out {
		if v != "" {
			last = i + 1
		}
	}
	return out[:last], nil
}

// BatchWrite 批量写入单元格
func (w *Workbook) BatchWrite(sheet string, updates []CellUpdate) (int, error) {
	if !w.sheetExists(sheet) {
		return 0, fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	written := 0
	for _, u := range updates {
		cell, err := excelize.CoordinatesToCellName(u.Col, u.Row)
		if err != nil {
			return written, fmt.Errorf("无效单元格坐标 (%d,%d): %w", u.Row, u.Col, err)
		}
		if err := w.file.SetCellStr(sheet, cell, u.Value); err != nil {
			return written, fmt.Errorf("写入 %s!%s 失败: %w", sheet, cell, err)
		}
		written++
	}
	return written, nil
}

// ClearRange 清空矩形区域
func (w *Workbook) ClearRange(sheet string, startRow, endRow, startCol, endCol int) error {
	if !w.sheetExists(sheet) {
		return fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	for r := startRow; r <= endRow; r++ {
		for c := startCol; c <= endCol; c++ {
			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return fmt.Errorf("无效单元格坐标 (%d,%d): %w", r, c, err)
			}
			if err := w.file.SetCellStr(sheet, cell, ""); err != nil {
				return fmt.Errorf("清空 %s!%s 失败: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

// CreateSheet 创建工作表，已存在时不动
func (w *Workbook) CreateSheet(sheet string) error {
	if w.sheetExists(sheet) {
		return nil
	}
	if _, err := w.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("创建工作表 %s 失败: %w", sheet, err)
	}
	return nil
}
