package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/itops-hk/itpm-service/internal/model"
)

func TestProjectsWorkbook(t *testing.T) {
	approved := 45000.0
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	projects := []model.Project{
		{
			Name:            "伺服器升級",
			Status:          model.ProjectStatusInProgress,
			RequestedBudget: 50000,
			ApprovedBudget:  &approved,
			StartDate:       &start,
			Manager:         &model.User{Name: "王小明"},
			BudgetPool:      &model.BudgetPool{Name: "FY2026 Infrastructure"},
		},
		{Name: "POS Upgrade", Status: model.ProjectStatusDraft, RequestedBudget: 20000},
	}

	data, err := NewGenerator().ProjectsWorkbook(projects)
	if err != nil {
		t.Fatalf("ProjectsWorkbook: %v", err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer file.Close()

	name, err := file.GetCellValue("Projects", "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if name != "伺服器升級" {
		t.Errorf("A2 = %q, want 伺服器升級", name)
	}
	manager, _ := file.GetCellValue("Projects", "C2")
	if manager != "王小明" {
		t.Errorf("C2 = %q, want 王小明", manager)
	}
}

func TestBudgetPoolsWorkbook(t *testing.T) {
	stats := []model.BudgetPoolStats{
		{
			Name:          "FY2026 Infrastructure",
			FinancialYear: 2026,
			TotalAmount:   100000,
			UsedAmount:    60000,
			Remaining:     40000,
			ProjectCount:  3,
		},
	}

	data, err := NewGenerator().BudgetPoolsWorkbook(stats)
	if err != nil {
		t.Fatalf("BudgetPoolsWorkbook: %v", err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer file.Close()

	remaining, err := file.GetCellValue("Budget Pools", "E2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if remaining != "40000" {
		t.Errorf("E2 = %q, want 40000", remaining)
	}
}
