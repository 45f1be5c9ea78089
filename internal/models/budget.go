package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly   BudgetPeriod = "monthly"
	BudgetPeriodQuarterly BudgetPeriod = "quarterly"
	BudgetPeriodYearly    BudgetPeriod = "yearly"
)

// Budget represents a spending limit for a category over repeating periods.
// Spending against a budget is always derived from the transaction ledger,
// never stored. At most one budget may exist per
// (entity, category, period type, start date).
type Budget struct {
	Base
	EntityID   string       `gorm:"type:uuid;not null;index;uniqueIndex:idx_budgets_scope" json:"entity_id"`
	CategoryID string       `gorm:"type:uuid;not null;index;uniqueIndex:idx_budgets_scope" json:"category_id"`
	Amount     int64        `gorm:"type:bigint;not null" json:"amount"`
	PeriodType BudgetPeriod `gorm:"not null;uniqueIndex:idx_budgets_scope" json:"period_type"`
	StartDate  time.Time    `gorm:"not null;uniqueIndex:idx_budgets_scope" json:"start_date"`
	EndDate    *time.Time   `json:"end_date,omitempty"`
	IsActive   bool         `gorm:"not null;default:true;index" json:"is_active"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
