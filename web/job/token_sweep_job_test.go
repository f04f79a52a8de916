package job

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/argo-inference/model-dashboard/database"
	"github.com/argo-inference/model-dashboard/database/model"
	"github.com/argo-inference/model-dashboard/logger"
	"github.com/argo-inference/model-dashboard/web/service"
)

func TestMain(m *testing.M) {
	os.Setenv("MDB_LOG_FOLDER", os.TempDir())
	logger.InitLogger(logging.ERROR)
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.ApiToken{}))
	database.SetDB(db)

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
		database.SetDB(nil)
	})
}

func TestTokenSweepRevokesOnlyExpired(t *testing.T) {
	setupTestDB(t)
	users := service.UserService{}
	tokens := service.TokenService{}

	_, err := users.CreateUser("alice", "pw", "Alice", "")
	require.NoError(t, err)

	expired, _, err := tokens.Issue("alice", "expired", 0)
	require.NoError(t, err)
	fresh, _, err := tokens.Issue("alice", "fresh", 30)
	require.NoError(t, err)

	NewTokenSweepJob().Run()

	list, err := tokens.ListTokens("alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, tk := range list {
		if tk.Description == "expired" {
			assert.True(t, tk.Revoked)
		} else {
			assert.False(t, tk.Revoked)
		}
	}

	_, err = tokens.Validate(expired)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
	id, err := tokens.Validate(fresh)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
}

func TestTokenSweepIsIdempotent(t *testing.T) {
	setupTestDB(t)
	users := service.UserService{}
	tokens := service.TokenService{}

	_, err := users.CreateUser("bob", "pw", "Bob", "")
	require.NoError(t, err)
	_, _, err = tokens.Issue("bob", "expired", 0)
	require.NoError(t, err)

	count, err := tokens.Sweep()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// already revoked, the second pass must touch nothing
	count, err = tokens.Sweep()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// sweeping an empty window is fine too
	time.Sleep(10 * time.Millisecond)
	count, err = tokens.Sweep()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
