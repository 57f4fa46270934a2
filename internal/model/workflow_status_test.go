package model

import "testing"

func TestProposalFlow(t *testing.T) {
	cases := []struct {
		from, to ProposalStatus
		want     bool
	}{
		{ProposalStatusDraft, ProposalStatusPendingApproval, true},
		{ProposalStatusMoreInfoRequired, ProposalStatusPendingApproval, true},
		{ProposalStatusPendingApproval, ProposalStatusApproved, true},
		{ProposalStatusPendingApproval, ProposalStatusRejected, true},
		{ProposalStatusPendingApproval, ProposalStatusMoreInfoRequired, true},
		{ProposalStatusDraft, ProposalStatusApproved, false},
		{ProposalStatusApproved, ProposalStatusDraft, false},
		{ProposalStatusRejected, ProposalStatusPendingApproval, false},
	}
	for _, tc := range cases {
		if got := ProposalFlow.Allowed(tc.from, tc.to); got != tc.want {
			t.Errorf("ProposalFlow.Allowed(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestExpenseFlow_RejectionReturnsToDraft(t *testing.T) {
	if !ExpenseFlow.Allowed(ExpenseStatusSubmitted, ExpenseStatusDraft) {
		t.Error("submitted expense must be allowed back to Draft on rejection")
	}
	if ExpenseFlow.Allowed(ExpenseStatusApproved, ExpenseStatusDraft) {
		t.Error("approved expense must not return to Draft")
	}
	if !ExpenseFlow.Allowed(ExpenseStatusApproved, ExpenseStatusPaid) {
		t.Error("approved expense must be allowed to Paid")
	}
}

func TestChargeOutFlow(t *testing.T) {
	cases := []struct {
		from, to ChargeOutStatus
		want     bool
	}{
		{ChargeOutStatusDraft, ChargeOutStatusSubmitted, true},
		{ChargeOutStatusSubmitted, ChargeOutStatusConfirmed, true},
		{ChargeOutStatusSubmitted, ChargeOutStatusRejected, true},
		{ChargeOutStatusConfirmed, ChargeOutStatusPaid, true},
		{ChargeOutStatusDraft, ChargeOutStatusConfirmed, false},
		{ChargeOutStatusRejected, ChargeOutStatusSubmitted, false},
		{ChargeOutStatusPaid, ChargeOutStatusDraft, false},
	}
	for _, tc := range cases {
		if got := ChargeOutFlow.Allowed(tc.from, tc.to); got != tc.want {
			t.Errorf("ChargeOutFlow.Allowed(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestChargeOut_Deletable(t *testing.T) {
	for _, status := range []ChargeOutStatus{ChargeOutStatusDraft, ChargeOutStatusRejected} {
		if !(ChargeOut{Status: status}).Deletable() {
			t.Errorf("ChargeOut in %s must be deletable", status)
		}
	}
	for _, status := range []ChargeOutStatus{ChargeOutStatusSubmitted, ChargeOutStatusConfirmed, ChargeOutStatusPaid} {
		if (ChargeOut{Status: status}).Deletable() {
			t.Errorf("ChargeOut in %s must not be deletable", status)
		}
	}
}

func TestExpense_ChargeOutEligible(t *testing.T) {
	eligible := Expense{RequiresChargeOut: true, Status: ExpenseStatusApproved}
	if !eligible.ChargeOutEligible() {
		t.Error("approved flagged expense must be eligible")
	}
	paid := Expense{RequiresChargeOut: true, Status: ExpenseStatusPaid}
	if !paid.ChargeOutEligible() {
		t.Error("paid flagged expense must be eligible")
	}
	notFlagged := Expense{RequiresChargeOut: false, Status: ExpenseStatusApproved}
	if notFlagged.ChargeOutEligible() {
		t.Error("unflagged expense must not be eligible")
	}
	draft := Expense{RequiresChargeOut: true, Status: ExpenseStatusDraft}
	if draft.ChargeOutEligible() {
		t.Error("draft expense must not be eligible")
	}
}

func TestBudgetPool_RemainingAmount(t *testing.T) {
	pool := BudgetPool{TotalAmount: 100000, UsedAmount: 37500}
	if got := pool.RemainingAmount(); got != 62500 {
		t.Errorf("RemainingAmount() = %v, want 62500", got)
	}
}
