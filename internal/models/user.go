package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleContractor Role = "contractor"
	RoleHomeowner  Role = "homeowner"
	RoleSupplier   Role = "supplier"
	RoleArchitect  Role = "architect"
	RoleDIY        Role = "diy"
)

// Valid reports whether r is one of the known trade roles.
func (r Role) Valid() bool {
	switch r {
	case RoleContractor, RoleHomeowner, RoleSupplier, RoleArchitect, RoleDIY:
		return true
	}
	return false
}

type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email           *string   `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	FirstName       *string   `gorm:"type:varchar(100)" json:"firstName"`
	LastName        *string   `gorm:"type:varchar(100)" json:"lastName"`
	ProfileImageURL *string   `gorm:"type:text" json:"profileImageUrl"`
	PasswordHash    *string   `gorm:"type:varchar(255)" json:"-"` // absent for federated identities
	ExternalSubject *string   `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	Karma           int       `gorm:"not null;default:0" json:"karma"`
	Role            Role      `gorm:"type:varchar(20);not null;default:'diy'" json:"role"`
	Bio             *string   `gorm:"type:text" json:"bio"`
	IsProfilePublic bool      `gorm:"not null;default:true" json:"isProfilePublic"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an identifier when the caller did not.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleDIY
	}
	return nil
}

// DisplayName joins the name parts, falling back to the email.
func (u *User) DisplayName() string {
	name := ""
	if u.FirstName != nil {
		name = *u.FirstName
	}
	if u.LastName != nil && *u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += *u.LastName
	}
	if name == "" && u.Email != nil {
		name = *u.Email
	}
	return name
}

// ProfileUpdate carries the user-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FirstName       *string
	LastName        *string
	Bio             *string
	Role            *Role
	IsProfilePublic *bool
	ProfileImageURL *string
}

// Apply copies the non-nil fields onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = p.FirstName
	}
	if p.LastName != nil {
		u.LastName = p.LastName
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsProfilePublic != nil {
		u.IsProfilePublic = *p.IsProfilePublic
	}
	if p.ProfileImageURL != nil {
		u.ProfileImageURL = p.ProfileImageURL
	}
}

// UserStats aggregates a user's activity for the profile page.
type UserStats struct {
	ThreadsCount  int64 `json:"threadsCount"`
	CommentsCount int64 `json:"commentsCount"`
	TotalUpvotes  int64 `json:"totalUpvotes"`
}

// StringPtr is a small helper for optional string columns.
func StringPtr(s string) *string {
	return &s
}
