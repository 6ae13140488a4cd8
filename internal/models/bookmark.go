package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Bookmark struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_user_target,priority:1" json:"userId"`
	TargetType TargetType `gorm:"type:varchar(20);not null;uniqueIndex:idx_bookmarks_user_target,priority:2" json:"targetType"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_user_target,priority:3;index" json:"targetId"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
}

func (b *Bookmark) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
