package model

// CategoryUnknown 状态可分配但映射不到任何类目时的兜底类目
// 一经写入不会自动清除，是对账时判定 actioned/pending 的锚点
const CategoryUnknown = "Unknown"

// ReportCategoryOrder 报告中类目的固定输出顺序
var ReportCategoryOrder = []string{"Fresh", "Abandoned", "Invalid/Fake", "CNP", "Follow up", "NDR"}

// StatusRules 一个线索源的状态表
// 原脚本把这些表写成模块级常量，这里改为显式配置传入各组件
type StatusRules struct {
	// Tiers 状态的优先级分层，仅作意图说明；处理顺序始终是行序
	Tiers map[int][]string

	// Categories 原始状态 → 报告类目；键集合即“可参与分配”的状态集合
	// 允许空串作键（弃购表里空白状态即为 Abandoned 类）
	Categories map[string]string

	// Retry 属于“重试”日期制度的状态集合（逐槽追加，满 3 槽不再动）
	// 其余可分配状态走“新周期”制度：槽 1 重置为今天，槽 2、3 清空
	Retry map[string]bool

	// Pending 初始类目 → 仍视作未处理的原始状态集合
	Pending map[string][]string

	// Outcomes 已处理线索的固定结果状态（直方图输出顺序）
	Outcomes []string

	// OtherOutcome 结果状态不在 Outcomes 内时的聚合桶名
	OtherOutcome string
}

// Eligible 判断状态是否参与分配
func (r StatusRules) Eligible(status string) bool {
	_, ok := r.Categories[status]
	return ok
}

// PendingStatuses 返回某初始类目的未处理状态集合
// 类目为 Unknown 时退化为所有未处理状态的并集
func (r StatusRules) PendingStatuses(category string) []string {
	if category == CategoryUnknown {
		var all []string
		for _, cat := range ReportCategoryOrder {
			all = append(all, r.Pending[cat]...)
		}
		return all
	}
	return r.Pending[category]
}

// IsPending 判断当前状态对给定初始类目而言是否仍未处理
func (r StatusRules) IsPending(category, status string) bool {
	for _, s := range r.PendingStatuses(category) {
		if s == status {
			return true
		}
	}
	return false
}

// OrdersRules 订单表的默认状态表
func OrdersRules() StatusRules {
	return StatusRules{
		Tiers: map[int][]string{
			1: {"NDR"},
			2: {"Confirmation Pending", "Fresh"},
			3: {"Call didn't Pick", "Follow up"},
			4: {"Abandoned", "Number invalid/fake order"},
		},
		Categories: map[string]string{
			"Fresh":                     "Fresh",
			"Confirmation Pending":      "Fresh",
			"Abandoned":                 "Abandoned",
			"Number invalid/fake order": "Invalid/Fake",
			"Call didn't Pick":          "CNP",
			"Follow up":                 "Follow up",
			"NDR":                       "NDR",
		},
		Retry: map[string]bool{"Call didn't Pick": true},
		Pending: map[string][]string{
			"Fresh":        {"Fresh", "Confirmation Pending"},
			"NDR":          {"NDR"},
			"CNP":          {"Call didn't Pick"},
			"Follow up":    {"Follow up"},
			"Invalid/Fake": {"Number invalid/fake order"},
		},
		Outcomes: []string{
			"Confirmed", "Cancelled", "RTO", "Delivered",
			"Fake Order Verified", "Invalid Number Verified",
			"NDR Resolved", "NDR - RTO Initiated",
			"Follow-up Scheduled (Post-Contact)", "Customer Unavailable (Post-Contact)",
			"Payment Link Sent", "Order Modified", "Query Resolved",
		},
		OtherOutcome: "Other Actioned (Orders)",
	}
}

// AbandonedRules 弃购表的默认状态表
// 空白状态等价于“新弃购”，按 Abandoned 类目分配
func AbandonedRules() StatusRules {
	return StatusRules{
		Categories: map[string]string{
			"":              "Abandoned",
			"Didn't pick up": "CNP",
		},
		Retry: map[string]bool{"Didn't pick up": true},
		Pending: map[string][]string{
			"Abandoned": {"", "Didn't Pickup", "Follow Up"},
			"CNP":       {"Didn't pick up", "Didn't Pickup"},
		},
		Outcomes: []string{
			"Converted to Order", "Not Interested (Contacted)",
			"Callback Requested (Abandoned)", "Invalid Number (Abandoned Verified)",
			"No Answer (Abandoned Attempted)", "Wrong Number (Abandoned Verified)",
		},
		OtherOutcome: "Other Actioned (Abandoned)",
	}
}
