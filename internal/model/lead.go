package model

import "strings"

// AttemptSlots 每条线索最多记录的联系日期槽位数
const AttemptSlots = 3

// Stakeholder 接线人及其每日分配上限
type Stakeholder struct {
	Name  string `yaml:"name" json:"name"`
	Limit int    `yaml:"limit" json:"limit"`
}

// Lead 线索行（订单或弃购）在内存中的镜像
// 行号是表内 1 基位置，也是唯一身份；两次运行之间不允许增删或重排行
type Lead struct {
	RowNumber       int
	RawStatus       string
	Stakeholder     string
	Dates           [AttemptSlots]string
	InitialCategory string
}

// ColumnNames 线索源各逻辑列在表头中的名字
// 同一逻辑列在不同表里叫法不同（如 Stakeholder / Stake Holder），所以按源配置
type ColumnNames struct {
	Status          string `yaml:"status" json:"status"`
	Stakeholder     string `yaml:"stakeholder" json:"stakeholder"`
	Date1           string `yaml:"date_1" json:"date_1"`
	Date2           string `yaml:"date_2" json:"date_2"`
	Date3           string `yaml:"date_3" json:"date_3"`
	InitialCategory string `yaml:"initial_category" json:"initial_category"`
	OrderName       string `yaml:"order_name,omitempty" json:"order_name,omitempty"`
	OrderStatus     string `yaml:"order_status,omitempty" json:"order_status,omitempty"`
}

// DateColumn 返回第 slot 个日期槽对应的列名（slot 为 1..3）
func (c ColumnNames) DateColumn(slot int) string {
	switch slot {
	case 1:
		return c.Date1
	case 2:
		return c.Date2
	case 3:
		return c.Date3
	}
	return ""
}

// AssignmentCounters 单次分发运行中某个接线人的分配计数
type AssignmentCounters struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
}

// NewAssignmentCounters 创建全零计数（所有固定类目预置为 0）
func NewAssignmentCounters() *AssignmentCounters {
	byCat := make(map[string]int, len(ReportCategoryOrder))
	for _, cat := range ReportCategoryOrder {
		byCat[cat] = 0
	}
	return &AssignmentCounters{ByCategory: byCat}
}

// NormalizeStatus 统一状态字符串口径（仅去首尾空白，保留大小写）
func NormalizeStatus(s string) string {
	return strings.TrimSpace(s)
}
