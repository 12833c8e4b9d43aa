package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyprian/shopifyCRM/internal/sheet"
)

// clearWidth 更新时清到 Z 列，确保旧块里更宽的行也被清干净
const clearWidth = 26

// Block 报告表里一个自包含的日期块
// Rows 含标题行（第一行）与结束行（最后一行）；单列块每行只有一个单元格
type Block struct {
	Title       string
	TitlePrefix string
	EndMarker   string
	Rows        [][]string
}

// Writer 报告块的幂等写入器
// 同一标题的块在一张表里最多存在一个：
// 已存在 → 原位清除后覆写（同日重跑字节级一致）；
// 不存在 → 追加到最后一个非空行之后（跨日只增不改）
type Writer struct {
	src       sheet.Source
	sheetName string
}

// NewWriter 创建写入器
func NewWriter(src sheet.Source, sheetName string) *Writer {
	return &Writer{src: src, sheetName: sheetName}
}

// SheetName 报告表名
func (w *Writer) SheetName() string {
	return w.sheetName
}

// Upsert 写入块，返回块的起始行（1 基）
// 表不存在时尝试建表一次；建表失败则放弃写入并报错，不留半截状态
func (w *Writer) Upsert(b Block) (int, error) {
	start, end, found, err := w.locate(b.Title, b.TitlePrefix, b.EndMarker)
	if err != nil {
		if !errors.Is(err, sheet.ErrSheetNotFound) {
			return 0, err
		}
		if cerr := w.src.CreateSheet(w.sheetName); cerr != nil {
			return 0, fmt.Errorf("报告表 %s 不存在且创建失败: %w", w.sheetName, cerr)
		}
		start, found = 1, false
	}

	if found {
		if err := w.src.ClearRange(w.sheetName, start, end, 1, clearWidth); err != nil {
			return 0, fmt.Errorf("清除旧报告块（第 %d-%d 行）失败: %w", start, end, err)
		}
	}

	var updates []sheet.CellUpdate
	for i, row := range b.Rows {
		for j, val := range row {
			if val == "" {
				continue
			}
			updates = append(updates, sheet.CellUpdate{Row: start + i, Col: j + 1, Value: val})
		}
	}
	if _, err := w.src.BatchWrite(w.sheetName, updates); err != nil {
		return 0, fmt.Errorf("写入报告块失败: %w", err)
	}
	return start, nil
}

// ReadBlock 读取指定标题块的首列各行（含标题行与结束行）
// 块不存在时返回 found=false；表不存在同样视为块不存在
func (w *Writer) ReadBlock(title, titlePrefix, endMarker string) ([]string, bool, error) {
	start, end, found, err := w.locate(title, titlePrefix, endMarker)
	if err != nil {
		if errors.Is(err, sheet.ErrSheetNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	col, err := w.src.ReadColumn(w.sheetName, 1)
	if err != nil {
		return nil, false, err
	}
	if end > len(col) {
		end = len(col)
	}
	return col[start-1 : end], true, nil
}

// locate 仅扫首列定位块范围（1 基、含端点）
// 找到后向后找块尾：专属结束行、或下一个同前缀不同日期的标题行的前一行、
// 或表内最后一个非空行
func (w *Writer) locate(title, titlePrefix, endMarker string) (start, end int, found bool, err error) {
	col, err := w.src.ReadColumn(w.sheetName, 1)
	if err != nil {
		return 0, 0, false, err
	}
	last := len(col)

	start = 0
	for i, v := range col {
		if strings.TrimSpace(v) == title {
			start = i + 1
			break
		}
	}
	if start == 0 {
		// 追加位置：最后一个非空行的下一行
		return last + 1, last + 1, false, nil
	}

	end = last
	for i := start; i < last; i++ {
		v := strings.TrimSpace(col[i])
		if v == endMarker {
			end = i + 1
			break
		}
		if strings.HasPrefix(v, titlePrefix) && v != title {
			end = i
			break
		}
	}
	if end < start {
		end = start
	}
	return start, end, true, nil
}
