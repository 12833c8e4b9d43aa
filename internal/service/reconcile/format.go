package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyprian/shopifyCRM/internal/model"
	"github.com/hyprian/shopifyCRM/internal/service/report"
)

const separatorLine = "------------------------------------------------------------"

var performanceTableHeader = []string{
	"Initial Category", "Assigned Today", "Actioned Today", "Pending Today", "Final Status Breakdown (Actioned)",
}

// PerformanceBlock 由对账汇总生成当天的效能报告块
// 每个接线人一段：分隔线夹五列表头，类目按固定顺序逐行输出，
// 出现过 Unknown 归集时补一行，最后是带差值注记的 TOTAL 行
func PerformanceBlock(date string, roster []model.Stakeholder, summaries map[string]*Summary, sources []Source) report.Block {
	owner := breakdownOwners(sources)

	rows := [][]string{
		{report.PerformanceTitle(date)},
		{"Date:", date},
		{""},
	}
	for _, s := range roster {
		sum := summaries[s.Name]
		if sum == nil {
			sum = newSummary(sources)
		}

		rows = append(rows, []string{"Stakeholder: " + s.Name})
		rows = append(rows, []string{separatorLine})
		rows = append(rows, performanceTableHeader)
		rows = append(rows, []string{separatorLine})

		for _, cat := range model.ReportCategoryOrder {
			rows = append(rows, []string{
				cat,
				strconv.Itoa(sum.AssignedByCategory[cat]),
				strconv.Itoa(sum.ActionedByCategory[cat]),
				strconv.Itoa(sum.PendingByCategory[cat]),
				breakdownString(sum, owner[cat], sources),
			})
		}

		unknownActioned := sum.ActionedByCategory[model.CategoryUnknown]
		unknownPending := sum.PendingByCategory[model.CategoryUnknown]
		if unknownActioned > 0 || unknownPending > 0 {
			rows = append(rows, []string{
				"Unknown Initial", "0",
				strconv.Itoa(unknownActioned), strconv.Itoa(unknownPending),
				"N/A (Check Logs/Config)",
			})
		}

		rows = append(rows, []string{separatorLine})
		rows = append(rows, []string{
			"TOTAL",
			strconv.Itoa(sum.AssignedTotal),
			strconv.Itoa(sum.ActionedTotal),
			strconv.Itoa(sum.PendingTotal),
			fmt.Sprintf("(Discrepancy vs Assigned: %d)", sum.Discrepancy()),
		})
		rows = append(rows, []string{""})
	}
	rows = append(rows, []string{report.PerformanceEndMarker(date)})

	return report.Block{
		Title:       report.PerformanceTitle(date),
		TitlePrefix: report.PerformanceTitlePrefix,
		EndMarker:   report.PerformanceEndMarker(date),
		Rows:        rows,
	}
}

// breakdownOwners 确定每个类目的结果直方图取自哪个线索源：
// 按配置顺序取第一个未处理状态表里含该类目的源
func breakdownOwners(sources []Source) map[string]string {
	owner := make(map[string]string, len(model.ReportCategoryOrder))
	for _, cat := range model.ReportCategoryOrder {
		for _, src := range sources {
			if _, ok := src.Rules.Pending[cat]; ok {
				owner[cat] = src.Spec.Name
				break
			}
		}
	}
	return owner
}

// breakdownString 按规则声明的顺序渲染直方图，零计数省略，末尾补聚合桶
func breakdownString(sum *Summary, sourceName string, sources []Source) string {
	if sourceName == "" {
		return "-"
	}
	hist := sum.Outcomes[sourceName]
	if hist == nil {
		return "-"
	}
	var rules model.StatusRules
	for _, src := range sources {
		if src.Spec.Name == sourceName {
			rules = src.Rules
			break
		}
	}

	var parts []string
	for _, status := range rules.Outcomes {
		if n := hist[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", status, n))
		}
	}
	if rules.OtherOutcome != "" {
		if n := hist[rules.OtherOutcome]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", rules.OtherOutcome, n))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
