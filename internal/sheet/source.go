// Package sheet 把“带表头的网格数据源”抽象成核心组件消费的接口。
// 生产实现是本地 xlsx 工作簿（Workbook），测试用内存实现（Memory）。
package sheet

import (
	"errors"
	"strings"
)

// ErrSheetNotFound 目标工作表不存在
// 用显式哨兵错误取代“解析范围失败”之类的异常式控制流，
// 调用方据此走“建表后追加”的降级路径
var ErrSheetNotFound = errors.New("工作表不存在")

// CellUpdate 单元格写入（行列均为 1 基）
type CellUpdate struct {
	Row   int
	Col   int
	Value string
}

// Source 网格数据源
// 所有调用均为同步阻塞；失败语义见各实现
type Source interface {
	// ReadAll 读取整张表，返回按行的二维字符串网格
	// 行可以是锯齿状的（尾部空单元格可能缺失），调用方自行补齐
	ReadAll(sheet string) ([][]string, error)

	// ReadColumn 仅读取第 col 列（1 基），返回每行该列的值
	// 行数以最后一个非空行为准
	ReadColumn(sheet string, col int) ([]string, error)

	// BatchWrite 批量写入单元格，返回写入的单元格数
	BatchWrite(sheet string, updates []CellUpdate) (int, error)

	// ClearRange 清空矩形区域（行列均为 1 基、含端点）
	ClearRange(sheet string, startRow, endRow, startCol, endCol int) error

	// CreateSheet 创建工作表；已存在时为幂等
	CreateSheet(sheet string) error
}

// ColumnIndex 在表头里精确匹配列名（去首尾空白），返回 0 基下标，未找到返回 -1
func ColumnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// PadRow 把行补齐或截断到表头长度，并去掉各单元格首尾空白
// 源数据里锯齿行很常见，统一口径后按下标取值才安全
func PadRow(row []string, width int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		out[i] = strings.TrimSpace(row[i])
	}
	return out
}
