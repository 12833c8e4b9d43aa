// Package distribute 实现线索的限额轮转分配：
// 过滤可分配状态 → 轮转选人 → 写联系日期槽 → 盖初始类目戳 → 批量写回并计数。
package distribute

import "github.com/hyprian/shopifyCRM/internal/model"

// Allocator 带每日限额的轮转分配器
// 游标和用量在一次运行内跨线索源共享：限额是每人每天的总预算，不按源拆分
type Allocator struct {
	roster []model.Stakeholder
	used   map[string]int
	cursor int
}

// NewAllocator 按花名册创建分配器，用量从零开始
func NewAllocator(roster []model.Stakeholder) *Allocator {
	return &Allocator{
		roster: roster,
		used:   make(map[string]int, len(roster)),
	}
}

// Assign 从游标起最多扫一圈，返回第一个还有余量的接线人
// 命中后用量加一、游标移到命中者的下一位；全员满额时返回 ("", false) 且游标不动
func (a *Allocator) Assign() (string, bool) {
	n := len(a.roster)
	if n == 0 {
		return "", false
	}
	for i := 0; i < n; i++ {
		idx := (a.cursor + i) % n
		s := a.roster[idx]
		if a.used[s.Name] < s.Limit {
			a.used[s.Name]++
			a.cursor = (idx + 1) % n
			return s.Name, true
		}
	}
	return "", false
}

// Used 某接线人本次运行已分到的数量
func (a *Allocator) Used(name string) int {
	return a.used[name]
}

// Remaining 全花名册剩余总余量
func (a *Allocator) Remaining() int {
	total := 0
	for _, s := range a.roster {
		if left := s.Limit - a.used[s.Name]; left > 0 {
			total += left
		}
	}
	return total
}
