// Package report 负责报告表里“带标题的日期块”：
// 固定文法的生成与解析，以及幂等的定位-清除-覆写。
// 文法是对账的唯一持久化通道，字符串必须逐字对上。
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyprian/shopifyCRM/internal/model"
)

// 分发报告块的固定文法
const (
	AssignmentTitlePrefix = "--- Stakeholder Report for Assignments on "
	assignedLinePrefix    = "Calls assigned "
	totalLineLabel        = "Total Calls This Run"
)

// 效能报告块的固定文法
const (
	PerformanceTitlePrefix = "--- Stakeholder Performance Report for "
)

// AssignmentTitle 分发报告块标题行（date 为补零的 DD-Mon-YYYY）
func AssignmentTitle(date string) string {
	return AssignmentTitlePrefix + date + " ---"
}

// AssignmentEndMarker 分发报告块结束行
func AssignmentEndMarker(date string) string {
	return "--- End of Report for " + date + " ---"
}

// PerformanceTitle 效能报告块标题行
func PerformanceTitle(date string) string {
	return PerformanceTitlePrefix + date + " ---"
}

// PerformanceEndMarker 效能报告块结束行
func PerformanceEndMarker(date string) string {
	return "--- End of Performance Report for " + date + " ---"
}

// AssignmentBlock 由分配计数生成当天的分发报告块
// 接线人按花名册顺序输出，类目按固定顺序输出，零计数也输出
func AssignmentBlock(date string, roster []model.Stakeholder, counters map[string]*model.AssignmentCounters) Block {
	rows := [][]string{
		{AssignmentTitle(date)},
		{""},
	}
	for _, s := range roster {
		c := counters[s.Name]
		if c == nil {
			c = model.NewAssignmentCounters()
		}
		rows = append(rows, []string{assignedLinePrefix + s.Name})
		rows = append(rows, []string{fmt.Sprintf("- %s - %d", totalLineLabel, c.Total)})
		for _, cat := range model.ReportCategoryOrder {
			rows = append(rows, []string{fmt.Sprintf("- %s - %d", cat, c.ByCategory[cat])})
		}
		rows = append(rows, []string{""})
	}
	rows = append(rows, []string{AssignmentEndMarker(date)})
	return Block{
		Title:       AssignmentTitle(date),
		TitlePrefix: AssignmentTitlePrefix,
		EndMarker:   AssignmentEndMarker(date),
		Rows:        rows,
	}
}

// AssignedCounts 从分发报告块解析回来的分配计数
type AssignedCounts struct {
	Totals     map[string]int
	ByCategory map[string]map[string]int
}

// ParseAssignmentBlock 把分发报告块的各行解析回每人每类目的分配计数
// 认不出的行、花名册外的名字、不在固定类目里的类目：记警告后忽略，不中断
// 历史上计数行写法有 “- Fresh - 3” 和 “- Fresh- 3” 两种，都按第一个连字符切分
func ParseAssignmentBlock(lines []string, roster []model.Stakeholder, categories []string) (*AssignedCounts, []string) {
	known := make(map[string]bool, len(roster))
	out := &AssignedCounts{
		Totals:     make(map[string]int, len(roster)),
		ByCategory: make(map[string]map[string]int, len(roster)),
	}
	for _, s := range roster {
		known[s.Name] = true
		out.Totals[s.Name] = 0
		byCat := make(map[string]int, len(categories))
		for _, cat := range categories {
			byCat[cat] = 0
		}
		out.ByCategory[s.Name] = byCat
	}
	catSet := make(map[string]bool, len(categories))
	for _, cat := range categories {
		catSet[cat] = true
	}

	var warnings []string
	current := ""
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, assignedLinePrefix):
			name := strings.TrimSpace(strings.TrimPrefix(line, assignedLinePrefix))
			if known[name] {
				current = name
			} else {
				warnings = append(warnings, fmt.Sprintf("报告中的接线人 %q 不在花名册内，跳过其段落", name))
				current = ""
			}
		case current != "" && strings.HasPrefix(line, "- "):
			content := strings.TrimSpace(line[2:])
			idx := strings.Index(content, "-")
			if idx < 0 {
				warnings = append(warnings, fmt.Sprintf("无法解析计数行 %q", line))
				continue
			}
			label := strings.TrimSpace(content[:idx])
			countStr := strings.TrimSpace(content[idx+1:])
			count, err := strconv.Atoi(countStr)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("计数行 %q 的数值 %q 无法解析", line, countStr))
				continue
			}
			switch {
			case label == totalLineLabel:
				out.Totals[current] = count
			case catSet[label]:
				out.ByCategory[current][label] = count
			default:
				warnings = append(warnings, fmt.Sprintf("类目 %q 不在固定类目内，忽略", label))
			}
		}
	}
	return out, warnings
}
