// Package session keeps server-side login sessions addressed by an opaque
// cookie token.
package session

import (
	"context"

	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/utils"
	"github.com/google/uuid"
)

const (
	CookieName  = "bt_session"
	tokenLength = 32
)

// Identity is the caller projection stored in a session and returned by
// /api/auth/user.
type Identity struct {
	ID              uuid.UUID `json:"id"`
	Email           *string   `json:"email"`
	FirstName       *string   `json:"firstName"`
	LastName        *string   `json:"lastName"`
	ProfileImageURL *string   `json:"profileImageUrl"`
}

// IdentityOf projects a stored user onto the session identity.
func IdentityOf(u *models.User) Identity {
	return Identity{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// Store persists sessions. Get returns (nil, nil) for unknown or expired
// tokens.
type Store interface {
	Create(ctx context.Context, identity Identity) (string, error)
	Get(ctx context.Context, token string) (*Identity, error)
	Destroy(ctx context.Context, token string) error
}

func newToken() (string, error) {
	return utils.RandomString(tokenLength)
}
