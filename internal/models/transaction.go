package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents a dated monetary event recorded against a category
// within an entity. Amounts are stored in cents.
//
// Transactions materialized from a recurring template carry the template ID
// and the occurrence date; the unique index over that pair is the generation
// idempotency key, so concurrent or retried generation runs can never insert
// the same occurrence twice.
type Transaction struct {
	Base
	EntityID            string          `gorm:"type:uuid;not null;index" json:"entity_id"`
	CategoryID          string          `gorm:"type:uuid;not null;index" json:"category_id"`
	UserID              *string         `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Type                TransactionType `gorm:"not null" json:"type"`
	Amount              int64           `gorm:"type:bigint;not null" json:"amount"`
	Date                time.Time       `gorm:"not null;index" json:"date"`
	Description         string          `json:"description"`
	Notes               string          `json:"notes"`
	RecurringTemplateID *string         `gorm:"type:uuid;uniqueIndex:idx_transactions_template_occurrence" json:"recurring_template_id,omitempty"`
	OccurrenceDate      *time.Time      `gorm:"uniqueIndex:idx_transactions_template_occurrence" json:"occurrence_date,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
