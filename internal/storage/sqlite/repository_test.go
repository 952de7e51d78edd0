package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-saver/internal/storage"
)

func TestRepositoryRoundTrip(t *testing.T) {
	repo, err := NewRepository(filepath.Join(t.TempDir(), "ledger.db"), 2000, nil)
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	base := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	records := []storage.ExportRecord{
		{RunID: "r1", Site: "SHBB", Keyword: "编制", Mode: storage.ModeBatch, StartPage: 1, EndPage: 2, Pages: 2,
			Total: 20, Succeeded: 19, Failed: 1, Filename: "a.docx", CheckSum: "c1", CreatedAt: base},
		{RunID: "r2", Site: "SCOPSR", Keyword: "文章集", Mode: storage.ModeArticle, StartPage: 0, EndPage: 0,
			Total: 1, Succeeded: 1, Filename: "b.docx", CheckSum: "c2", CreatedAt: base.Add(time.Minute)},
		{RunID: "r3", Site: "SHBB", Keyword: "机构", Mode: storage.ModeBatch, StartPage: 3, EndPage: 3, Pages: 1,
			Total: 10, Succeeded: 10, Filename: "c.docx", CheckSum: "c3", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range records {
		require.NoError(t, repo.SaveExport(ctx, &records[i]))
	}

	all, err := repo.RecentExports(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r3", all[0].RunID)
	assert.Equal(t, "r1", all[2].RunID)
	assert.True(t, all[2].CreatedAt.Equal(base))
	assert.Equal(t, 19, all[2].Succeeded)

	shbb, err := repo.RecentExports(ctx, "SHBB", 1)
	require.NoError(t, err)
	require.Len(t, shbb, 1)
	assert.Equal(t, "r3", shbb[0].RunID)

	exists, err := repo.ExistsByChecksum(ctx, "c2")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByChecksum(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepositoryReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	repo, err := NewRepository(path, 2000, nil)
	require.NoError(t, err)
	require.NoError(t, repo.SaveExport(context.Background(), &storage.ExportRecord{
		RunID: "r1", Site: "SHBB", Mode: storage.ModeBatch, CheckSum: "x", CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.Close())

	repo, err = NewRepository(path, 2000, nil)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.RecentExports(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
