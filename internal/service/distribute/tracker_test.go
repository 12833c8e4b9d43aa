package distribute

import (
	"testing"

	"github.com/hyprian/shopifyCRM/internal/model"
)

func TestNextSlot_FreshAlwaysResetsSlotOne(t *testing.T) {
	t.Parallel()

	// 新周期制度：不管旧日期长什么样，一律写槽 1 并清掉 2、3
	cases := [][model.AttemptSlots]string{
		{"", "", ""},
		{"01-May-2025", "", ""},
		{"01-May-2025", "02-May-2025", "03-May-2025"},
	}
	for i, dates := range cases {
		got := NextSlot(false, dates)
		if got.Slot != 1 || !got.ClearRest {
			t.Fatalf("case %d: want={1 true} got=%+v", i, got)
		}
	}
}

func TestNextSlot_RetryFillsFirstEmpty(t *testing.T) {
	t.Parallel()

	if got := NextSlot(true, [model.AttemptSlots]string{"", "", ""}); got.Slot != 1 || got.ClearRest {
		t.Fatalf("empty slots: want={1 false} got=%+v", got)
	}
	if got := NextSlot(true, [model.AttemptSlots]string{"01-May-2025", "", ""}); got.Slot != 2 || got.ClearRest {
		t.Fatalf("one filled: want={2 false} got=%+v", got)
	}
	if got := NextSlot(true, [model.AttemptSlots]string{"01-May-2025", "02-May-2025", ""}); got.Slot != 3 {
		t.Fatalf("two filled: want slot=3 got=%+v", got)
	}
}

func TestNextSlot_RetryCapsAtThree(t *testing.T) {
	t.Parallel()

	dates := [model.AttemptSlots]string{"01-May-2025", "02-May-2025", "03-May-2025"}
	if got := NextSlot(true, dates); got.Slot != 0 || got.ClearRest {
		t.Fatalf("full slots: want={0 false} got=%+v", got)
	}
}
