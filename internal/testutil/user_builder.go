package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sjoneon/DaySync-Server/core"
)

// UserBuilder seeds a user.
// Example:
//
//	u := NewUserBuilder("u-1").Nickname("민지").LastActive(old).Build(t, repo)
type UserBuilder struct {
	user core.User
}

// NewUserBuilder starts a user with the given id.
func NewUserBuilder(id core.UserID) *UserBuilder {
	return &UserBuilder{user: core.User{ID: id}}
}

// Nickname sets the display name (chainable).
func (b *UserBuilder) Nickname(n string) *UserBuilder { b.user.Nickname = n; return b }

// PrepTime sets the preparation time preference in seconds (chainable).
func (b *UserBuilder) PrepTime(secs int) *UserBuilder { b.user.PrepTime = secs; return b }

// CreatedAt sets the creation time (chainable).
func (b *UserBuilder) CreatedAt(t time.Time) *UserBuilder { b.user.CreatedAt = t; return b }

// LastActive sets the last activity time (chainable).
func (b *UserBuilder) LastActive(t time.Time) *UserBuilder { b.user.LastActive = t; return b }

// Build stores the user and returns the persisted record.
func (b *UserBuilder) Build(t testing.TB, repo core.UserStore) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), b.user)
	require.NoError(t, err)
	return u
}
