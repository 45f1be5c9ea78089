package models

// EntityType represents the kind of financial tracking context an entity is.
type EntityType string

const (
	EntityTypeFamily  EntityType = "family"
	EntityTypeStartup EntityType = "startup"
)

// Entity is a tenancy boundary: a separate financial tracking context
// (e.g. "Family", "Startup") owning its own categories, transactions,
// budgets, and recurring templates.
type Entity struct {
	Base
	Name        string     `gorm:"not null" json:"name"`
	Type        EntityType `gorm:"not null" json:"type"`
	Description string     `json:"description"`

	Members            []EntityMember      `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Categories         []Category          `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	Transactions       []Transaction       `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
	Budgets            []Budget            `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE" json:"budgets,omitempty"`
	RecurringTemplates []RecurringTemplate `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE" json:"recurring_templates,omitempty"`
}

// MemberRole represents a user's role within an entity.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
)

// EntityMember links a user to an entity with a role. A user can belong
// to several entities; membership is what authorizes access to the
// entity's data.
type EntityMember struct {
	Base
	UserID   string     `gorm:"type:uuid;not null;uniqueIndex:idx_entity_members_user_entity" json:"user_id"`
	EntityID string     `gorm:"type:uuid;not null;uniqueIndex:idx_entity_members_user_entity" json:"entity_id"`
	Role     MemberRole `gorm:"not null;default:member" json:"role"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
