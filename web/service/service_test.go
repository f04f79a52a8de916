package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/argo-inference/model-dashboard/database"
	"github.com/argo-inference/model-dashboard/database/model"
	"github.com/argo-inference/model-dashboard/logger"
)

func TestMain(m *testing.M) {
	os.Setenv("MDB_LOG_FOLDER", os.TempDir())
	logger.InitLogger(logging.ERROR)
	os.Exit(m.Run())
}

// setupTestDB points the shared handle at a throwaway sqlite database. The
// pure-Go driver keeps tests runnable without cgo.
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
