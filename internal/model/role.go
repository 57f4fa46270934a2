package model

type Role string

const (
	RoleProjectManager Role = "ProjectManager"
	RoleSupervisor     Role = "Supervisor"
	RoleAdmin          Role = "Admin"
)

// Action names a role-gated operation on the workflow entities.
type Action string

const (
	ActionSubmitProposal   Action = "proposal.submit"
	ActionApproveProposal  Action = "proposal.approve"
	ActionSubmitExpense    Action = "expense.submit"
	ActionApproveExpense   Action = "expense.approve"
	ActionRejectExpense    Action = "expense.reject"
	ActionApprovePO        Action = "purchase_order.approve"
	ActionConfirmChargeOut Action = "charge_out.confirm"
	ActionRejectChargeOut  Action = "charge_out.reject"
	ActionManageUsers      Action = "user.manage"

	ActionManageOMCategories Action = "om_category.manage"
)

// rolePermissions is the capability table behind Can. Admin inherits every
// supervisor capability; supervisors approve, managers submit.
var rolePermissions = map[Role]map[Action]bool{
	RoleProjectManager: {
		ActionSubmitProposal: true,
		ActionSubmitExpense:  true,
	},
	RoleSupervisor: {
		ActionSubmitProposal:   true,
		ActionSubmitExpense:    true,
		ActionApproveProposal:  true,
		ActionApproveExpense:   true,
		ActionRejectExpense:    true,
		ActionApprovePO:        true,
		ActionConfirmChargeOut: true,
		ActionRejectChargeOut:  true,

		ActionManageOMCategories: true,
	},
	RoleAdmin: nil, // admin may perform everything
}

func Can(role Role, action Action) bool {
	if role == RoleAdmin {
		return true
	}
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return perms[action]
}

func (r Role) Valid() bool {
	switch r {
	case RoleProjectManager, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}
