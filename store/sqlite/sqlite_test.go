package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/store"
	"github.com/Sjoneon/DaySync-Server/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "daysync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.Repository { return openTemp(t) })
}

func TestSQLiteInMemoryPath(t *testing.T) {
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	defer s.Close()

	u, err := s.CreateUser(context.Background(), core.User{})
	require.NoError(t, err)
	got, err := s.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestSQLiteDuplicateUser(t *testing.T) {
	s := openTemp(t)
	_, err := s.CreateUser(context.Background(), core.User{ID: "u-1"})
	require.NoError(t, err)
	_, err = s.CreateUser(context.Background(), core.User{ID: "u-1"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "daysync.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, core.User{ID: "u-1"})
	require.NoError(t, err)
	sess, err := s.CreateSession(ctx, core.NewSession("u-1", time.Now()))
	require.NoError(t, err)
	_, err = s.AppendExchange(ctx, sess.ID,
		core.Message{Role: core.RoleUser, Content: "내일 일정 알려줘"},
		core.Message{Role: core.RoleAssistant, Content: "내일은 일정이 없습니다."}, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	msgs, err := s.ListMessages(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, "내일은 일정이 없습니다.", msgs[1].Content)
}
