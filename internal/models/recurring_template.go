package models

import "time"

// Frequency represents how often a recurring template produces a transaction.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// RecurringTemplate is a generator definition, not a transaction: it
// materializes zero or more concrete transactions over time, each linked
// back via RecurringTemplateID. Deactivating a template stops future
// generation but never retracts transactions it already produced.
type RecurringTemplate struct {
	Base
	EntityID    string          `gorm:"type:uuid;not null;index" json:"entity_id"`
	CategoryID  string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Name        string          `gorm:"not null" json:"name"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Description string          `json:"description"`
	Notes       string          `json:"notes"`
	Frequency   Frequency       `gorm:"not null" json:"frequency"`
	StartDate   time.Time       `gorm:"not null" json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	IsActive    bool            `gorm:"not null;default:true;index" json:"is_active"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
