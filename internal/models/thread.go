package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryConstruction Category = "construction"
	CategoryFurniture    Category = "furniture"
	CategoryServices     Category = "services"
)

// Valid reports whether c is one of the forum sections.
func (c Category) Valid() bool {
	switch c {
	case CategoryConstruction, CategoryFurniture, CategoryServices:
		return true
	}
	return false
}

type Thread struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Category  Category  `gorm:"type:varchar(50);not null;index" json:"category"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"authorId"`
	Upvotes   int       `gorm:"not null;default:0" json:"upvotes"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}

func (t *Thread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ThreadUpdate carries the editable thread fields. Nil means unchanged.
type ThreadUpdate struct {
	Title    *string
	Content  *string
	Category *Category
}

// Apply copies the non-nil fields onto t.
func (u ThreadUpdate) Apply(t *Thread) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Content != nil {
		t.Content = *u.Content
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
}

// ThreadFilter narrows a thread listing. Zero values match everything.
type ThreadFilter struct {
	Category Category
	AuthorID uuid.UUID
}

// Matches reports whether t passes the filter.
func (f ThreadFilter) Matches(t *Thread) bool {
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.AuthorID != uuid.Nil && t.AuthorID != f.AuthorID {
		return false
	}
	return true
}
