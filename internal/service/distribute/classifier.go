package distribute

import "github.com/hyprian/shopifyCRM/internal/model"

// Classifier 把原始状态映射为报告类目
// 纯函数：同样的输入永远给同样的结果，不产生任何错误
type Classifier struct {
	rules model.StatusRules
}

// NewClassifier 按状态表创建分类器
func NewClassifier(rules model.StatusRules) *Classifier {
	return &Classifier{rules: rules}
}

// Classify 返回 (类目, 是否可分配)
// 状态不在表内 → 不可分配，整行跳过分发；
// 在表内但映射为空 → 类目兜底为 Unknown
func (c *Classifier) Classify(rawStatus string) (string, bool) {
	status := model.NormalizeStatus(rawStatus)
	cat, ok := c.rules.Categories[status]
	if !ok {
		return "", false
	}
	if cat == "" {
		return model.CategoryUnknown, true
	}
	return cat, true
}

// Retry 状态是否属于重试日期制度
func (c *Classifier) Retry(rawStatus string) bool {
	return c.rules.Retry[model.NormalizeStatus(rawStatus)]
}
