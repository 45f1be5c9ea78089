package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category. Categories form a per-entity
// forest via ParentID; a child always has the same entity and the same type
// as its parent. Deleting a category only deactivates it so historical
// transactions keep a readable label.
type Category struct {
	Base
	EntityID    string       `gorm:"type:uuid;not null;index" json:"entity_id"`
	Name        string       `gorm:"not null" json:"name"`
	Type        CategoryType `gorm:"not null" json:"type"`
	ParentID    *string      `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Color       string       `json:"color"`
	IsActive    bool         `gorm:"not null;default:true;index" json:"is_active"`

	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// CategoryNode is a category with its children resolved, as returned by
// the tree endpoint.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}
