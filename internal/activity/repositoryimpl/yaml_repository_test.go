package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himbot/mission-control/internal/activity"
	"github.com/himbot/mission-control/pkg/storage"
)

func newTestRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewYAMLRepository(store)
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	// ULIDs generated from increasing timestamps sort chronologically by
	// construction, matching what the service produces.
	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 5; i++ {
		id := ulid.MustNew(ulid.Timestamp(base.Add(time.Duration(i)*time.Minute)), ulid.DefaultEntropy()).String()
		ids = append(ids, id)
		require.NoError(t, repo.Create(ctx, &activity.Activity{
			ID:          id,
			Type:        "task_created",
			Description: "Task created",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, ids[4], all[0].ID)
	assert.Equal(t, ids[0], all[4].ID)

	limited, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[4], limited[0].ID)
	assert.Equal(t, ids[3], limited[1].ID)
}

func TestList_EmptyFeed(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	all, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_PersistsMetadata(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id := ulid.Make().String()
	require.NoError(t, repo.Create(ctx, &activity.Activity{
		ID:          id,
		Type:        "memory_updated",
		Description: "Memory synced: MEMORY.md",
		Timestamp:   time.Now(),
		Metadata:    map[string]any{"path": "MEMORY.md", "type": "core"},
	}))

	all, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "MEMORY.md", all[0].Metadata["path"])
	assert.Equal(t, "core", all[0].Metadata["type"])
}
