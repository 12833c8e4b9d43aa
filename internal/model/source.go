package model

// SourceSpec 线索源（订单表 / 弃购表）的位置与结构描述
// 行号均为 1 基；表头行与数据起始行在两张表里历来不同，必须按源配置
type SourceSpec struct {
	Name         string      `yaml:"name" json:"name"`
	Workbook     string      `yaml:"workbook" json:"workbook"`
	Sheet        string      `yaml:"sheet" json:"sheet"`
	HeaderRow    int         `yaml:"header_row" json:"header_row"`
	DataStartRow int         `yaml:"data_start_row" json:"data_start_row"`
	Rules        string      `yaml:"rules" json:"rules"`
	Columns      ColumnNames `yaml:"columns" json:"columns"`
}

// RulesFor 根据配置名取状态表；认不出的名字按订单表处理
func RulesFor(name string) StatusRules {
	if name == "abandoned" {
		return AbandonedRules()
	}
	return OrdersRules()
}
