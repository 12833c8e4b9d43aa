package distribute

import "github.com/hyprian/shopifyCRM/internal/model"

// SlotDecision 日期槽写入决定
// Slot 为 1..3；0 表示三个槽已满、全部保持不动
// ClearRest 为 true 时除写入槽外的后续槽要清空（新联系周期开始）
type SlotDecision struct {
	Slot      int
	ClearRest bool
}

// NextSlot 决定本次分配应把“今天”写进哪个日期槽
//
// 两种制度，按状态是否属于重试集合选择：
//   - 重试制度（如 Call didn't Pick）：按 1→2→3 填第一个空槽，
//     三槽全满时封顶不再写
//   - 新周期制度（其余可分配状态）：无条件把槽 1 重置为今天，
//     槽 2、3 清空，覆盖旧的尝试历史
//
// 仅做决定，不产生副作用；实际写入由调用方完成
func NextSlot(retry bool, dates [model.AttemptSlots]string) SlotDecision {
	if !retry {
		return SlotDecision{Slot: 1, ClearRest: true}
	}
	for i, d := range dates {
		if d == "" {
			return SlotDecision{Slot: i + 1}
		}
	}
	return SlotDecision{}
}
