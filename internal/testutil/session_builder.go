package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sjoneon/DaySync-Server/core"
)

// SessionBuilder seeds a session and its message history. Exchanges are
// stored one step apart starting at the session's creation time, and the
// session ends up updated at the last exchange.
// Example:
//
//	sess := NewSessionBuilder("u-1").At(t0).Exchange("안녕", "안녕하세요").Build(t, repo)
type SessionBuilder struct {
	userID    core.UserID
	title     string
	at        time.Time
	step      time.Duration
	exchanges [][2]string
	updatedAt time.Time
}

// NewSessionBuilder creates a builder for a session owned by userID.
func NewSessionBuilder(userID core.UserID) *SessionBuilder {
	return &SessionBuilder{userID: userID, title: core.DefaultSessionTitle, step: time.Second}
}

// Title sets the session title (chainable).
func (b *SessionBuilder) Title(title string) *SessionBuilder { b.title = title; return b }

// At sets the creation time (chainable).
func (b *SessionBuilder) At(t time.Time) *SessionBuilder { b.at = t; return b }

// Step sets the spacing between seeded exchanges (chainable).
func (b *SessionBuilder) Step(d time.Duration) *SessionBuilder { b.step = d; return b }

// UpdatedAt forces the final updated_at, applied through one last empty
// append when no exchanges are seeded (chainable).
func (b *SessionBuilder) UpdatedAt(t time.Time) *SessionBuilder { b.updatedAt = t; return b }

// Exchange appends one user/assistant pair (chainable).
func (b *SessionBuilder) Exchange(user, assistant string) *SessionBuilder {
	b.exchanges = append(b.exchanges, [2]string{user, assistant})
	return b
}

// Exchanges appends n numbered pairs (chainable).
func (b *SessionBuilder) Exchanges(n int) *SessionBuilder {
	for i := 0; i < n; i++ {
		b.Exchange(fmt.Sprintf("질문 %d", i+1), fmt.Sprintf("답변 %d", i+1))
	}
	return b
}

// Build persists the session and its exchanges and returns the session as
// stored after the last append.
func (b *SessionBuilder) Build(t testing.TB, repo core.Repository) core.Session {
	t.Helper()
	ctx := context.Background()

	at := b.at
	if at.IsZero() {
		at = time.Now()
	}
	sess := core.NewSession(b.userID, at)
	sess.Title = b.title
	sess, err := repo.CreateSession(ctx, sess)
	require.NoError(t, err)

	for i, ex := range b.exchanges {
		when := at.Add(time.Duration(i) * b.step)
		if i == len(b.exchanges)-1 && !b.updatedAt.IsZero() {
			when = b.updatedAt
		}
		_, err := repo.AppendExchange(ctx, sess.ID,
			core.Message{Role: core.RoleUser, Content: ex[0]},
			core.Message{Role: core.RoleAssistant, Content: ex[1]},
			when)
		require.NoError(t, err)
	}
	if len(b.exchanges) == 0 && !b.updatedAt.IsZero() {
		// Without messages there is no append to carry the timestamp, so
		// seed a throwaway exchange and remove it again.
		ex, err := repo.AppendExchange(ctx, sess.ID, core.Message{Role: core.RoleUser}, core.Message{Role: core.RoleAssistant}, b.updatedAt)
		require.NoError(t, err)
		_, err = repo.DeleteMessages(ctx, ex.User.ID, ex.Assistant.ID)
		require.NoError(t, err)
	}

	sess, err = repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	return sess
}
