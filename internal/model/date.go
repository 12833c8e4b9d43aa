package model

import (
	"fmt"
	"time"
)

// SheetDateLayout 表内日期统一写入格式：09-May-2025
const SheetDateLayout = "02-Jan-2006"

// FormatSheetDate 按统一口径格式化日期（日补零）
func FormatSheetDate(t time.Time) string {
	return t.Format(SheetDateLayout)
}

// ParseSheetDate 解析补零形式的表内日期
func ParseSheetDate(s string) (time.Time, error) {
	t, err := time.Parse(SheetDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式应为 %s: %w", SheetDateLayout, err)
	}
	return t, nil
}

// AcceptedDateStrings 返回同一天在表里可能出现的全部写法
// 历史脚本写入时有的补零（08-May-2025）有的不补（8-May-2025），
// 比较边界必须同时接受两种写法；新写入一律用补零形式
func AcceptedDateStrings(t time.Time) []string {
	padded := t.Format(SheetDateLayout)
	unpadded := fmt.Sprintf("%d-%s", t.Day(), t.Format("Jan-2006"))
	if unpadded == padded {
		return []string{padded}
	}
	return []string{padded, unpadded}
}

// MatchesDate 判断单元格里的日期串是否表示给定这天
func MatchesDate(cell string, t time.Time) bool {
	for _, s := range AcceptedDateStrings(t) {
		if cell == s {
			return true
		}
	}
	return false
}
