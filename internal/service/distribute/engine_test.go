package distribute

import (
	"errors"
	"testing"
	"time"

	"github.com/hyprian/shopifyCRM/internal/model"
	"github.com/hyprian/shopifyCRM/internal/service/report"
	"github.com/hyprian/shopifyCRM/internal/sheet"
)

var fixedDay = time.Date(2025, time.May, 8, 10, 0, 0, 0, time.UTC)

const fixedDate = "08-May-2025"

func ordersSpec() model.SourceSpec {
	return model.SourceSpec{
		Name:         "orders",
		Sheet:        "Orders",
		HeaderRow:    2,
		DataStartRow: 3,
		Columns: model.ColumnNames{
			Status:          "Call-status",
			Stakeholder:     "Stakeholder",
			Date1:           "Date",
			Date2:           "Date 2",
			Date3:           "Date 3",
			InitialCategory: "Initial Assignment Category",
		},
	}
}

func ordersHeader() []string {
	return []string{"Name", "Call-status", "Stakeholder", "Date", "Date 2", "Date 3", "Initial Assignment Category"}
}

func seedOrders(grid *sheet.Memory, rows ...[]string) {
	all := [][]string{
		{"Orders 2025"},
		ordersHeader(),
	}
	all = append(all, rows...)
	grid.Seed("Orders", all)
}

func newTestEngine(sources []Source, roster []model.Stakeholder) (*Engine, *sheet.Memory) {
	reportGrid := sheet.NewMemory()
	writer := report.NewWriter(reportGrid, "Stakeholder Report")
	e := NewEngine(sources, roster, writer)
	e.SetNow(func() time.Time { return fixedDay })
	return e, reportGrid
}

func TestEngine_AssignsAndStamps(t *testing.T) {
	t.Parallel()

	grid := sheet.NewMemory()
	seedOrders(grid,
		[]string{"#1001", "Fresh", "", "", "", "", ""},
		[]string{"#1002", "Confirmed", "", "", "", "", ""},
		[]string{"#1003", "Call didn't Pick", "Priya", "05-May-2025", "", "", "CNP"},
	)

	rs := []model.Stakeholder{{Name: "Priya", Limit: 5}, {Name: "Rahul", Limit: 5}}
	e, _ := newTestEngine([]Source{{Spec: ordersSpec(), Rules: model.OrdersRules(), Grid: grid}}, rs)

	result, err := e.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	sr := result.Sources[0]
	if sr.Eligible != 2 || sr.Assigned != 2 {
		t.Fatalf("eligible/assigned want=2/2 got=%d/%d", sr.Eligible, sr.Assigned)
	}

	// 新周期：#1001 槽 1 写今天，接线人 Priya，类目 Fresh
	if got := grid.Cell("Orders", 3, 3); got != "Priya" {
		t.Fatalf("row3 stakeholder want=Priya got=%q", got)
	}
	if got := grid.Cell("Orders", 3, 4); got != fixedDate {
		t.Fatalf("row3 date1 want=%s got=%q", fixedDate, got)
	}
	if got := grid.Cell("Orders", 3, 7); got != "Fresh" {
		t.Fatalf("row3 category want=Fresh got=%q", got)
	}

	// 不可分配状态的行保持原样
	if got := grid.Cell("Orders", 4, 3); got != "" {
		t.Fatalf("row4 should stay untouched, got stakeholder=%q", got)
	}

	// 重试：#1003 槽 1 已占，今天写进槽 2，槽 1 不动
	if got := grid.Cell("Orders", 5, 4); got != "05-May-2025" {
		t.Fatalf("row5 date1 want=05-May-2025 got=%q", got)
	}
	if got := grid.Cell("Orders", 5, 5); got != fixedDate {
		t.Fatalf("row5 date2 want=%s got=%q", fixedDate, got)
	}
	if got := grid.Cell("Orders", 5, 6); got != "" {
		t.Fatalf("row5 date3 want empty got=%q", got)
	}
	if got := grid.Cell("Orders", 5, 7); got != "CNP" {
		t.Fatalf("row5 category want=CNP got=%q", got)
	}
}

func TestEngine_FreshRegimeClearsLaterSlots(t *testing.T) {
	t.Parallel()

	grid := sheet.NewMemory()
	seedOrders(grid,
		[]string{"#1001", "NDR", "Rahul", "01-May-2025", "02-May-2025", "03-May-2025", "CNP"},
	)

	rs := []model.Stakeholder{{Name: "Priya", Limit: 5}}
	e, _ := newTestEngine([]Source{{Spec: ordersSpec(), Rules: model.OrdersRules(), Grid: grid}}, rs)

	if _, err := e.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := grid.Cell("Orders", 3, 4); got != fixedDate {
		t.Fatalf("date1 want=%s got=%q", fixedDate, got)
	}
	if got := grid.Cell("Orders", 3, 5); got != "" {
		t.Fatalf("date2 want cleared got=%q", got)
	}
	if got := grid.Cell("Orders", 3, 6); got != "" {
		t.Fatalf("date3 want cleared got=%q", got)
	}
	if got := grid.Cell("Orders", 3, 7); got != "NDR" {
		t.Fatalf("category want=NDR got=%q", got)
	}
}

func TestEngine_SharedAllocatorAcrossSources(t *testing.T) {
	t.Parallel()

	orders := sheet.NewMemory()
	seedOrders(orders,
		[]string{"#1001", "Fresh", "", "", "", "", ""},
	)

	abandonedSpec := model.SourceSpec{
		Name:         "abandoned",
		Sheet:        "Abandoned",
		HeaderRow:    1,
		DataStartRow: 2,
		Columns: model.ColumnNames{
			Status:          "Calling status",
			Stakeholder:     "Stake Holder",
			Date1:           "Date1",
			Date2:           "Date2",
			Date3:           "Date3",
			InitialCategory: "Initial Assignment Category",
		},
	}
	abandoned := sheet.NewMemory()
	abandoned.Seed("Abandoned", [][]string{
		{"Phone", "Calling status", "Stake Holder", "Date1", "Date2", "Date3", "Initial Assignment Category"},
		{"987", "", "", "", "", "", ""},
		{"988", "", "", "", "", "", ""},
	})

	// 总预算 2：orders 用掉 1，abandoned 只剩 1，最后一行满额跳过
	rs := []model.Stakeholder{{Name: "Priya", Limit: 1}, {Name: "Rahul", Limit: 1}}
	e, _ := newTestEngine([]Source{
		{Spec: ordersSpec(), Rules: model.OrdersRules(), Grid: orders},
		{Spec: abandonedSpec, Rules: model.AbandonedRules(), Grid: abandoned},
	}, rs)

	result, err := e.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := orders.Cell("Orders", 3, 3); got != "Priya" {
		t.Fatalf("orders row3 want=Priya got=%q", got)
	}
	if got := abandoned.Cell("Abandoned", 2, 3); got != "Rahul" {
		t.Fatalf("abandoned row2 want=Rahul got=%q", got)
	}
	if result.Sources[1].SkippedNoCapacity != 1 {
		t.Fatalf("skipped want=1 got=%d", result.Sources[1].SkippedNoCapacity)
	}
	if result.TotalAssigned() != 2 {
		t.Fatalf("total assigned want=2 got=%d", result.TotalAssigned())
	}
}

func TestEngine_MissingWriteColumnSkipped(t *testing.T) {
	t.Parallel()

	grid := sheet.NewMemory()
	header := []string{"Name", "Call-status", "Stakeholder", "Date", "Date 2", "Initial Assignment Category"}
	grid.Seed("Orders", [][]string{
		{"Orders 2025"},
		header,
		{"#1001", "Fresh", "", "", "", ""},
	})

	rs := []model.Stakeholder{{Name: "Priya", Limit: 5}}
	e, _ := newTestEngine([]Source{{Spec: ordersSpec(), Rules: model.OrdersRules(), Grid: grid}}, rs)

	result, err := e.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	sr := result.Sources[0]
	if len(sr.MissingColumns) != 1 || sr.MissingColumns[0] != "Date 3" {
		t.Fatalf("missing columns want=[Date 3] got=%v", sr.MissingColumns)
	}
	// 缺列不影响其余列的写入
	if got := grid.Cell("Orders", 3, 3); got != "Priya" {
		t.Fatalf("stakeholder want=Priya got=%q", got)
	}
	if got := grid.Cell("Orders", 3, 4); got != fixedDate {
		t.Fatalf("date1 want=%s got=%q", fixedDate, got)
	}
	if got := grid.Cell("Orders", 3, 6); got != "Fresh" {
		t.Fatalf("category want=Fresh got=%q", got)
	}
}

func TestEngine_UnreadableSourceIsolated(t *testing.T) {
	t.Parallel()

	bad := sheet.NewMemory()
	bad.FailRead["Orders"] = errors.New("网络抖动")

	good := sheet.NewMemory()
	good.Seed("Abandoned", [][]string{
		{"Phone", "Calling status", "Stake Holder", "Date1", "Date2", "Date3", "Initial Assignment Category"},
		{"987", "", "", "", "", "", ""},
	})
	abandonedSpec := model.SourceSpec{
		Name:         "abandoned",
		Sheet:        "Abandoned",
		HeaderRow:    1,
		DataStartRow: 2,
		Columns: model.ColumnNames{
			Status:          "Calling status",
			Stakeholder:     "Stake Holder",
			Date1:           "Date1",
			Date2:           "Date2",
			Date3:           "Date3",
			InitialCategory: "Initial Assignment Category",
		},
	}

	rs := []model.Stakeholder{{Name: "Priya", Limit: 5}}
	e, _ := newTestEngine([]Source{
		{Spec: ordersSpec(), Rules: model.OrdersRules(), Grid: bad},
		{Spec: abandonedSpec, Rules: model.AbandonedRules(), Grid: good},
	}, rs)

	result, err := e.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Sources[0].Err == "" || result.Sources[0].Assigned != 0 {
		t.Fatalf("bad source want err and zero assigned, got=%+v", result.Sources[0])
	}
	if result.Sources[1].Assigned != 1 {
		t.Fatalf("good source assigned want=1 got=%d", result.Sources[1].Assigned)
	}
}

func TestEngine_WritesAssignmentReport(t *testing.T) {
	t.Parallel()

	grid := sheet.NewMemory()
	seedOrders(grid,
		[]string{"#1001", "Fresh", "", "", "", "", ""},
		[]string{"#1002", "NDR", "", "", "", "", ""},
	)

	rs := []model.Stakeholder{{Name: "Priya", Limit: 5}, {Name: "Rahul", Limit: 5}}
	e, reportGrid := newTestEngine([]Source{{Spec: ordersSpec(), Rules: model.OrdersRules(), Grid: grid}}, rs)

	result, err := e.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.ReportError != "" {
		t.Fatalf("report error: %s", result.ReportError)
	}
	if result.ReportRow != 1 {
		t.Fatalf("report row want=1 got=%d", result.ReportRow)
	}

	if got := reportGrid.Cell("Stakeholder Report", 1, 1); got != "--- Stakeholder Report for Assignments on 08-May-2025 ---" {
		t.Fatalf("title got=%q", got)
	}
	if got := reportGrid.Cell("Stakeholder Report", 3, 1); got != "Calls assigned Priya" {
		t.Fatalf("stakeholder line got=%q", got)
	}
	if got := reportGrid.Cell("Stakeholder Report", 4, 1); got != "- Total Calls This Run - 1" {
		t.Fatalf("total line got=%q", got)
	}
	if got := reportGrid.Cell("Stakeholder Report", 5, 1); got != "- Fresh - 1" {
		t.Fatalf("fresh line got=%q", got)
	}
	if got := reportGrid.Cell("Stakeholder Report", 21, 1); got != "--- End of Report for 08-May-2025 ---" {
		t.Fatalf("end marker got=%q", got)
	}
}

func TestEngine_ExhaustionLeavesRemainderUntouched(t *testing.T) {
	t.Parallel()

	grid := sheet.NewMemory()
	seedOrders(grid,
		[]string{"#1001", "Fresh", "", "", "", "", ""},
		[]string{"#1002", "Fresh", "", "", "", "", ""},
		[]string{"#1003", "Fresh", "", "", "", "", ""},
	)

	rs := []model.Stakeholder{{Name: "Priya", Limit: 1}, {Name: "Rahul", Limit: 1}}
	e, _ := newTestEngine([]Source{{Spec: ordersSpec(), Rules: model.OrdersRules(), Grid: grid}}, rs)

	result, err := e.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	sr := result.Sources[0]
	if sr.Assigned != 2 || sr.SkippedNoCapacity != 1 {
		t.Fatalf("assigned/skipped want=2/1 got=%d/%d", sr.Assigned, sr.SkippedNoCapacity)
	}

	// 满额后第三行整行保持原样
	for col := 3; col <= 7; col++ {
		if got := grid.Cell("Orders", 5, col); got != "" {
			t.Fatalf("row5 col%d should stay untouched, got %q", col, got)
		}
	}
}
