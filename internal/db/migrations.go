package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email VARCHAR(256) NOT NULL UNIQUE,
		name VARCHAR(128) NOT NULL,
		role VARCHAR(32) NOT NULL DEFAULT 'ProjectManager',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS budget_pools (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(200) NOT NULL,
		total_amount NUMERIC(18,2) NOT NULL,
		used_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		financial_year INTEGER NOT NULL,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(200) NOT NULL,
		description TEXT,
		status VARCHAR(32) NOT NULL DEFAULT 'Draft',
		manager_id UUID NOT NULL REFERENCES users(id),
		supervisor_id UUID NOT NULL REFERENCES users(id),
		budget_pool_id UUID NOT NULL REFERENCES budget_pools(id),
		requested_budget NUMERIC(18,2) DEFAULT 0,
		approved_budget NUMERIC(18,2),
		start_date TIMESTAMPTZ,
		end_date TIMESTAMPTZ,
		charge_out_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_projects_budget_pool_id ON projects (budget_pool_id);`,
	`CREATE INDEX IF NOT EXISTS idx_projects_status ON projects (status);`,
	`CREATE TABLE IF NOT EXISTS budget_proposals (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title VARCHAR(200) NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'Draft',
		project_id UUID NOT NULL REFERENCES projects(id),
		approved_amount NUMERIC(18,2),
		approved_by UUID REFERENCES users(id),
		approved_at TIMESTAMPTZ,
		rejection_reason TEXT,
		meeting_date TIMESTAMPTZ,
		meeting_notes TEXT,
		presented_by VARCHAR(128),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_budget_proposals_project_id ON budget_proposals (project_id);`,
	`CREATE INDEX IF NOT EXISTS idx_budget_proposals_status ON budget_proposals (status);`,
	`CREATE TABLE IF NOT EXISTS comments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		content TEXT NOT NULL,
		user_id UUID NOT NULL REFERENCES users(id),
		budget_proposal_id UUID NOT NULL REFERENCES budget_proposals(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS histories (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		action VARCHAR(64) NOT NULL,
		details TEXT,
		user_id UUID NOT NULL REFERENCES users(id),
		budget_proposal_id UUID NOT NULL REFERENCES budget_proposals(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(200) NOT NULL,
		contact_person VARCHAR(128),
		contact_email VARCHAR(256),
		phone VARCHAR(64),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS quotes (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		file_path VARCHAR(512),
		upload_date TIMESTAMPTZ,
		amount NUMERIC(18,2) NOT NULL,
		vendor_id UUID NOT NULL REFERENCES vendors(id),
		project_id UUID NOT NULL REFERENCES projects(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		po_number VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(200) NOT NULL,
		description TEXT,
		date TIMESTAMPTZ,
		total_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		status VARCHAR(32) NOT NULL DEFAULT 'Draft',
		project_id UUID NOT NULL REFERENCES projects(id),
		vendor_id UUID NOT NULL REFERENCES vendors(id),
		quote_id UUID REFERENCES quotes(id),
		approved_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_orders_project_id ON purchase_orders (project_id);`,
	`CREATE TABLE IF NOT EXISTS purchase_order_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		purchase_order_id UUID NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		item_name VARCHAR(200) NOT NULL,
		description TEXT,
		quantity NUMERIC(12,2) NOT NULL,
		unit_price NUMERIC(18,4) NOT NULL,
		subtotal NUMERIC(18,2) NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(200) NOT NULL,
		description TEXT,
		total_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		status VARCHAR(32) NOT NULL DEFAULT 'Draft',
		invoice_number VARCHAR(64),
		invoice_date TIMESTAMPTZ,
		requires_charge_out BOOLEAN NOT NULL DEFAULT FALSE,
		purchase_order_id UUID NOT NULL REFERENCES purchase_orders(id),
		expense_date TIMESTAMPTZ,
		approved_date TIMESTAMPTZ,
		paid_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_purchase_order_id ON expenses (purchase_order_id);`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_status ON expenses (status);`,
	`CREATE TABLE IF NOT EXISTS expense_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		expense_id UUID NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
		item_name VARCHAR(200) NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS operating_companies (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		code VARCHAR(32) NOT NULL UNIQUE,
		name VARCHAR(200) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS charge_outs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(200) NOT NULL,
		description TEXT,
		debit_note_number VARCHAR(64),
		issue_date TIMESTAMPTZ,
		payment_date TIMESTAMPTZ,
		status VARCHAR(32) NOT NULL DEFAULT 'Draft',
		total_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		project_id UUID NOT NULL REFERENCES projects(id),
		op_co_id UUID NOT NULL REFERENCES operating_companies(id),
		confirmed_by UUID REFERENCES users(id),
		confirmed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_charge_outs_project_id ON charge_outs (project_id);`,
	`CREATE INDEX IF NOT EXISTS idx_charge_outs_status ON charge_outs (status);`,
	`CREATE TABLE IF NOT EXISTS charge_out_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		charge_out_id UUID NOT NULL REFERENCES charge_outs(id) ON DELETE CASCADE,
		expense_id UUID NOT NULL REFERENCES expenses(id),
		amount NUMERIC(18,2) NOT NULL,
		description TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_charge_out_items_charge_out_id ON charge_out_items (charge_out_id);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id),
		type VARCHAR(64) NOT NULL,
		title VARCHAR(200) NOT NULL,
		message TEXT NOT NULL,
		link VARCHAR(512),
		entity_type VARCHAR(32) NOT NULL,
		entity_id UUID NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		email_sent BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications (user_id, is_read);`,
	`CREATE TABLE IF NOT EXISTS om_expense_categories (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		code VARCHAR(20) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		description VARCHAR(500),
		sort_order INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS om_expenses (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(200) NOT NULL,
		description TEXT,
		financial_year INTEGER NOT NULL,
		category VARCHAR(100) NOT NULL,
		total_budget_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		total_actual_spent NUMERIC(18,2) NOT NULL DEFAULT 0,
		yoy_growth_rate NUMERIC(9,4),
		vendor_id UUID REFERENCES vendors(id),
		source_expense_id UUID REFERENCES expenses(id),
		default_op_co_id UUID REFERENCES operating_companies(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_om_expenses_financial_year ON om_expenses (financial_year);`,
	`CREATE INDEX IF NOT EXISTS idx_om_expenses_category ON om_expenses (category);`,
	`CREATE INDEX IF NOT EXISTS idx_om_expenses_source_expense_id ON om_expenses (source_expense_id);`,
	`CREATE TABLE IF NOT EXISTS om_expense_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		om_expense_id UUID NOT NULL REFERENCES om_expenses(id) ON DELETE CASCADE,
		name VARCHAR(200) NOT NULL,
		description TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		budget_amount NUMERIC(18,2) NOT NULL,
		actual_spent NUMERIC(18,2) NOT NULL DEFAULT 0,
		last_fy_actual NUMERIC(18,2),
		op_co_id UUID NOT NULL REFERENCES operating_companies(id),
		start_date TIMESTAMPTZ,
		end_date TIMESTAMPTZ,
		ongoing BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_om_expense_items_om_expense_id ON om_expense_items (om_expense_id);`,
	`CREATE TABLE IF NOT EXISTS om_expense_monthlies (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		om_expense_item_id UUID NOT NULL REFERENCES om_expense_items(id) ON DELETE CASCADE,
		month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
		actual_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (om_expense_item_id, month)
	);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
