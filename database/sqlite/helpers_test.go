package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo with a unique table name for test isolation
func setupTestRepo(t *testing.T) zipstream.DownloadRepo {
	t.Helper()

	ctx := context.Background()

	tableName := fmt.Sprintf("downloads_%s", getRandomString(t))
	tables := zipstream.Tables{Downloads: tableName}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	t.Cleanup(func() { _ = db.Close() })

	return db.GetRepo()
}

func newDownload(archive string, startedAt time.Time) zipstream.Download {
	return zipstream.Download{
		ID:         uuid.New(),
		Archive:    archive,
		Outcome:    zipstream.OutcomeCompleted,
		BytesSent:  2048,
		Chunks:     1,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(500 * time.Millisecond),
	}
}
