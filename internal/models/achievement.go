package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Achievement is static reference data unlocked by reaching Requirement karma.
type Achievement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"type:varchar(50)" json:"icon"`
	Category    string    `gorm:"type:varchar(50);not null;default:'karma'" json:"category"`
	Requirement int       `gorm:"not null" json:"requirement"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// UserAchievement is earned at most once per (user, achievement).
type UserAchievement struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievements_pair,priority:1" json:"userId"`
	AchievementID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievements_pair,priority:2" json:"achievementId"`
	EarnedAt      time.Time `json:"earnedAt"`
}

func (ua *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if ua.ID == uuid.Nil {
		ua.ID = uuid.New()
	}
	if ua.EarnedAt.IsZero() {
		ua.EarnedAt = time.Now()
	}
	return nil
}

// DefaultAchievements is the karma ladder shown on the profile page.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{Name: "Getting the Hang of It", Description: "10+ positive reactions", Icon: "wrench", Category: "karma", Requirement: 10},
		{Name: "Trustworthy", Description: "30+ positive reactions", Icon: "hammer", Category: "karma", Requirement: 30},
		{Name: "Straight to the Point", Description: "50+ positive reactions", Icon: "cog", Category: "karma", Requirement: 50},
		{Name: "Renovation Expert", Description: "100+ positive reactions", Icon: "briefcase", Category: "karma", Requirement: 100},
		{Name: "Jack of All Trades", Description: "300+ positive reactions", Icon: "settings", Category: "karma", Requirement: 300},
		{Name: "Foreman", Description: "500+ positive reactions", Icon: "hard-hat", Category: "karma", Requirement: 500},
		{Name: "Renovation Guru", Description: "1000+ positive reactions", Icon: "trophy", Category: "karma", Requirement: 1000},
	}
}

// AllModels lists every table for migrations.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Thread{},
		&Comment{},
		&Vote{},
		&Bookmark{},
		&Achievement{},
		&UserAchievement{},
		&KarmaGrant{},
	}
}
