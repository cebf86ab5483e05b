package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/telechat/internal/ai"
	"github.com/muratoffalex/telechat/internal/database"
	"github.com/muratoffalex/telechat/internal/logger"
)

func newTestStore(t *testing.T, maxSize int) *Store {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:", logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, maxSize, logger.NewTestLogger())
}

func TestAppendAndHistory(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, 42, ai.RoleUser, "hello"))
	require.NoError(t, store.Append(ctx, 42, ai.RoleAssistant, "hi there"))

	messages, err := store.History(ctx, 42)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, ai.RoleUser, messages[0].Role)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, ai.RoleAssistant, messages[1].Role)
	assert.Equal(t, "hi there", messages[1].Content)
}

func TestHistoryIsolatedPerContext(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, 1, ai.RoleUser, "context one"))
	require.NoError(t, store.Append(ctx, 2, ai.RoleUser, "context two"))

	messages, err := store.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "context one", messages[0].Content)
}

func TestAppendTrimsOldestFirst(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, store.Append(ctx, 7, ai.RoleUser, fmt.Sprintf("question %d", i)))
		require.NoError(t, store.Append(ctx, 7, ai.RoleAssistant, fmt.Sprintf("answer %d", i)))
	}

	messages, err := store.History(ctx, 7)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, "question 3", messages[0].Content)
	assert.Equal(t, "answer 4", messages[3].Content)
}

func TestClear(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, 9, ai.RoleUser, "hello"))
	require.NoError(t, store.Clear(ctx, 9))

	messages, err := store.History(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestContextStats(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, 5, ai.RoleUser, "abc"))
	require.NoError(t, store.Append(ctx, 5, ai.RoleAssistant, "defgh"))

	st, err := store.ContextStats(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Messages)
	assert.Equal(t, 1, st.UserTurns)
	assert.Equal(t, 8, st.Characters)
}

func TestContextStatsEmpty(t *testing.T) {
	store := newTestStore(t, 10)

	st, err := store.ContextStats(context.Background(), 1234)
	require.NoError(t, err)
	assert.Zero(t, st.Messages)
	assert.Zero(t, st.UserTurns)
	assert.Zero(t, st.Characters)
}
