package database

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/database/entitystore"
	"github.com/mrlokans/influence/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := "./test_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestNewDatabase_MigratesSchema(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, table := range []string{
		"companies", "company_domains",
		"influencers", "influencer_subjects",
		"announcements", "announcement_subjects",
		"applications",
	} {
		assert.True(t, db.DB.Migrator().HasTable(table), "missing table %s", table)
	}

	assert.Equal(t, entitystore.SQLite, db.Dialect())
	assert.NoError(t, db.Ping(context.Background()))
	assert.NotNil(t, db.SQL())
}

func TestNewDatabase_ReopenIsIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())
}

func TestLengthTriggers(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("value at the limit is accepted", func(t *testing.T) {
		err := db.DB.Create(&entities.AnnouncementSubject{
			AnnouncementID: 1,
			Subject:        strings.Repeat("a", entities.MaxChildValueLength),
		}).Error
		assert.NoError(t, err)
	})

	t.Run("value over the limit is rejected on insert", func(t *testing.T) {
		for _, model := range []any{
			&entities.AnnouncementSubject{AnnouncementID: 1, Subject: strings.Repeat("b", 51)},
			&entities.InfluencerSubject{InfluencerID: 1, Subject: strings.Repeat("b", 51)},
			&entities.CompanyDomain{CompanyID: 1, Domain: strings.Repeat("b", 51)},
		} {
			err := db.DB.Create(model).Error
			require.Error(t, err)
			assert.True(t, IsConstraintViolation(err), "expected constraint violation, got %v", err)
		}
	})

	t.Run("value over the limit is rejected on update", func(t *testing.T) {
		row := &entities.CompanyDomain{CompanyID: 1, Domain: "acme.com"}
		require.NoError(t, db.DB.Create(row).Error)

		err := db.DB.Model(row).Update("domain", strings.Repeat("c", 60)).Error
		require.Error(t, err)
		assert.True(t, IsConstraintViolation(err))
	})
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.Database{Driver: "oracle", DSN: "whatever"})
	assert.Error(t, err)
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open(config.Database{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, db.DB.Migrator().HasTable("announcements"))
	assert.Equal(t, 1, db.SQL().Stats().MaxOpenConnections)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := db.Transaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&entities.CompanyDomain{CompanyID: 1, Domain: "rolled-back.com"}).Error; err != nil {
			return err
		}
		return ErrNotFound
	})
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.DB.Model(&entities.CompanyDomain{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"./app.db", "./app.db?_busy_timeout=5000&_txlock=immediate"},
		{"./app.db?cache=shared", "./app.db?cache=shared&_busy_timeout=5000&_txlock=immediate"},
		{"./app.db?_busy_timeout=100&_txlock=deferred", "./app.db?_busy_timeout=100&_txlock=deferred"},
		{":memory:", ":memory:?_busy_timeout=5000"},
		{"", config.DefaultDatabasePath + "?_busy_timeout=5000&_txlock=immediate"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, sqliteDSN(tt.in))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.Com\n"))
}
