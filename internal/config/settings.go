package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hyprian/shopifyCRM/internal/model"
)

// ReportSettings 报告表配置
// 分发报告与效能报告各占一张追加式工作表，可同簿也可分簿
type ReportSettings struct {
	Workbook         string `yaml:"workbook" json:"workbook"`
	AssignmentSheet  string `yaml:"assignment_sheet" json:"assignment_sheet"`
	PerformanceSheet string `yaml:"performance_sheet" json:"performance_sheet"`
}

// Settings 业务配置（settings.yaml）
// 花名册、各线索源的表结构描述、报告表位置
type Settings struct {
	Stakeholders []model.Stakeholder `yaml:"stakeholders" json:"stakeholders"`
	Sources      []model.SourceSpec  `yaml:"sources" json:"sources"`
	Reports      ReportSettings      `yaml:"reports" json:"reports"`
}

// DefaultSettings 默认业务配置（与原始表结构一致的起点）
func DefaultSettings() *Settings {
	return &Settings{
		Stakeholders: []model.Stakeholder{},
		Sources: []model.SourceSpec{
			{
				Name:         "orders",
				Workbook:     "orders.xlsx",
				Sheet:        "Orders",
				HeaderRow:    2,
				DataStartRow: 3,
				Rules:        "orders",
				Columns: model.ColumnNames{
					Status:          "Call-status",
					Stakeholder:     "Stakeholder",
					Date1:           "Date",
					Date2:           "Date 2",
					Date3:           "Date 3",
					InitialCategory: "Initial Assignment Category",
					OrderName:       "Name",
					OrderStatus:     "order status",
				},
			},
			{
				Name:         "abandoned",
				Workbook:     "abandoned.xlsx",
				Sheet:        "Abandoned",
				HeaderRow:    1,
				DataStartRow: 2,
				Rules:        "abandoned",
				Columns: model.ColumnNames{
					Status:          "Calling status",
					Stakeholder:     "Stake Holder",
					Date1:           "Date1",
					Date2:           "Date2",
					Date3:           "Date3",
					InitialCategory: "Initial Assignment Category",
				},
			},
		},
		Reports: ReportSettings{
			Workbook:         "orders.xlsx",
			AssignmentSheet:  "Stakeholder Report",
			PerformanceSheet: "Performance Reports",
		},
	}
}

// LoadSettings 从 YAML 文件加载业务配置并校验
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取业务配置 %s 失败: %w", path, err)
	}

	settings := &Settings{}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("解析业务配置 %s 失败: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// SaveSettings 保存业务配置（先校验，坏配置不落盘）
func SaveSettings(path string, settings *Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("序列化业务配置失败: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate 校验业务配置
// 配置错误要在任何表格写入发生之前暴露出来
func (s *Settings) Validate() error {
	if len(s.Stakeholders) == 0 {
		return fmt.Errorf("业务配置缺少花名册（stakeholders 为空）")
	}
	seen := make(map[string]bool, len(s.Stakeholders))
	for i, st := range s.Stakeholders {
		if st.Name == "" {
			return fmt.Errorf("第 %d 个接线人名字为空", i+1)
		}
		if seen[st.Name] {
			return fmt.Errorf("接线人 %q 重复", st.Name)
		}
		seen[st.Name] = true
		if st.Limit < 0 {
			return fmt.Errorf("接线人 %q 的每日上限不能为负（当前 %d）", st.Name, st.Limit)
		}
	}

	if len(s.Sources) == 0 {
		return fmt.Errorf("业务配置缺少线索源（sources 为空）")
	}
	names := make(map[string]bool, len(s.Sources))
	for i, src := range s.Sources {
		if src.Name == "" {
			return fmt.Errorf("第 %d 个线索源名字为空", i+1)
		}
		if names[src.Name] {
			return fmt.Errorf("线索源 %q 重复", src.Name)
		}
		names[src.Name] = true
		if src.Workbook == "" || src.Sheet == "" {
			return fmt.Errorf("线索源 %q 缺少工作簿路径或表名", src.Name)
		}
		if src.HeaderRow < 1 {
			return fmt.Errorf("线索源 %q 的表头行号必须为正（当前 %d）", src.Name, src.HeaderRow)
		}
		if src.DataStartRow <= src.HeaderRow {
			return fmt.Errorf("线索源 %q 的数据起始行 %d 必须在表头行 %d 之后", src.Name, src.DataStartRow, src.HeaderRow)
		}
		if src.Columns.Status == "" {
			return fmt.Errorf("线索源 %q 缺少状态列名", src.Name)
		}
		if src.Columns.Stakeholder == "" || src.Columns.Date1 == "" {
			return fmt.Errorf("线索源 %q 缺少接线人列名或日期1列名", src.Name)
		}
	}

	if s.Reports.Workbook == "" || s.Reports.AssignmentSheet == "" || s.Reports.PerformanceSheet == "" {
		return fmt.Errorf("报告表配置不完整（workbook / assignment_sheet / performance_sheet 均为必填）")
	}
	return nil
}
