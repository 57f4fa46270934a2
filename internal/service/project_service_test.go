package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itops-hk/itpm-service/internal/model"
	"github.com/itops-hk/itpm-service/internal/repository"
)

func TestProjectService_Create(t *testing.T) {
	store := newFakeProjectStore()
	svc := NewProjectService(store, fakeExcelGenerator{})

	project, err := svc.Create(context.Background(), managerPrincipal(), CreateProjectInput{
		Name:            "核心系統更新",
		ManagerID:       uuid.New(),
		SupervisorID:    uuid.New(),
		BudgetPoolID:    uuid.New(),
		RequestedBudget: 50000,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusDraft, project.Status)
	assert.Nil(t, project.ApprovedBudget)
}

func TestProjectService_Create_Validation(t *testing.T) {
	svc := NewProjectService(newFakeProjectStore(), fakeExcelGenerator{})

	_, err := svc.Create(context.Background(), managerPrincipal(), CreateProjectInput{
		ManagerID:    uuid.New(),
		SupervisorID: uuid.New(),
		BudgetPoolID: uuid.New(),
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), managerPrincipal(), CreateProjectInput{
		Name:         "x",
		SupervisorID: uuid.New(),
		BudgetPoolID: uuid.New(),
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), managerPrincipal(), CreateProjectInput{
		Name:         "x",
		ManagerID:    uuid.New(),
		SupervisorID: uuid.New(),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestProjectService_Get_NotFound(t *testing.T) {
	svc := NewProjectService(newFakeProjectStore(), fakeExcelGenerator{})

	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "找不到該專案", err.Error())
}

func TestProjectService_CompleteChargeOut(t *testing.T) {
	project := testProject()
	project.Status = model.ProjectStatusInProgress
	store := newFakeProjectStore(project)
	svc := NewProjectService(store, fakeExcelGenerator{})

	date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	got, err := svc.CompleteChargeOut(context.Background(), supervisorPrincipal(), project.ID, date)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusCompleted, got.Status)
	require.NotNil(t, got.ChargeOutDate)
	assert.Equal(t, date, *got.ChargeOutDate)
}

func TestProjectService_CompleteChargeOut_ManagerForbidden(t *testing.T) {
	project := testProject()
	project.Status = model.ProjectStatusInProgress
	svc := NewProjectService(newFakeProjectStore(project), fakeExcelGenerator{})

	_, err := svc.CompleteChargeOut(context.Background(), managerPrincipal(), project.ID, time.Now())
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestProjectService_CompleteChargeOut_OnlyInProgress(t *testing.T) {
	project := testProject()
	svc := NewProjectService(newFakeProjectStore(project), fakeExcelGenerator{})

	_, err := svc.CompleteChargeOut(context.Background(), supervisorPrincipal(), project.ID, time.Now())
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "只有進行中的專案可以結案（當前狀態：Draft）", err.Error())
}

func TestProjectService_CompleteChargeOut_BlockedByUnpaidExpenses(t *testing.T) {
	project := testProject()
	project.Status = model.ProjectStatusInProgress
	store := newFakeProjectStore(project)
	store.unpaid = 2
	svc := NewProjectService(store, fakeExcelGenerator{})

	_, err := svc.CompleteChargeOut(context.Background(), supervisorPrincipal(), project.ID, time.Now())
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "尚有 2 筆費用未支付，無法完成專案轉嫁", err.Error())
}

func TestProjectService_ExportXLSX(t *testing.T) {
	project := testProject()
	svc := NewProjectService(newFakeProjectStore(project), fakeExcelGenerator{})

	fileName, content, err := svc.ExportXLSX(context.Background(), repository.ProjectFilter{})
	require.NoError(t, err)
	assert.Regexp(t, `^projects-\d{8}\.xlsx$`, fileName)
	assert.NotEmpty(t, content)
}
