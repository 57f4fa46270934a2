package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/itops-hk/itpm-service/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// ProjectsWorkbook renders one row per project with its budget figures.
func (g *Generator) ProjectsWorkbook(projects []model.Project) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Projects"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Name", "Status", "Manager", "Supervisor", "Budget Pool", "Requested Budget", "Approved Budget", "Start Date", "End Date"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, project := range projects {
		row := i + 2
		set(fmt.Sprintf("A%d", row), project.Name)
		set(fmt.Sprintf("B%d", row), string(project.Status))
		if project.Manager != nil {
			set(fmt.Sprintf("C%d", row), project.Manager.Name)
		}
		if project.Supervisor != nil {
			set(fmt.Sprintf("D%d", row), project.Supervisor.Name)
		}
		if project.BudgetPool != nil {
			set(fmt.Sprintf("E%d", row), project.BudgetPool.Name)
		}
		set(fmt.Sprintf("F%d", row), project.RequestedBudget)
		if project.ApprovedBudget != nil {
			set(fmt.Sprintf("G%d", row), *project.ApprovedBudget)
		}
		set(fmt.Sprintf("H%d", row), formatDate(project.StartDate))
		set(fmt.Sprintf("I%d", row), formatDate(project.EndDate))
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BudgetPoolsWorkbook renders the per-pool usage summary.
func (g *Generator) BudgetPoolsWorkbook(stats []model.BudgetPoolStats) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Budget Pools"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Name", "Financial Year", "Total Amount", "Used Amount", "Remaining", "Projects"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, pool := range stats {
		row := i + 2
		set(fmt.Sprintf("A%d", row), pool.Name)
		set(fmt.Sprintf("B%d", row), pool.FinancialYear)
		set(fmt.Sprintf("C%d", row), pool.TotalAmount)
		set(fmt.Sprintf("D%d", row), pool.UsedAmount)
		set(fmt.Sprintf("E%d", row), pool.Remaining)
		set(fmt.Sprintf("F%d", row), pool.ProjectCount)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
