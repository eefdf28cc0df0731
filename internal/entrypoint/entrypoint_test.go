package entrypoint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/database"
	"github.com/mrlokans/influence/internal/entities"
)

func TestCSRFSecret(t *testing.T) {
	t.Run("hex secret is decoded", func(t *testing.T) {
		secret, err := csrfSecret("00ff10")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0xff, 0x10}, secret)
	})

	t.Run("non-hex secret is used as is", func(t *testing.T) {
		secret, err := csrfSecret("not hex at all")
		require.NoError(t, err)
		assert.Equal(t, []byte("not hex at all"), secret)
	})

	t.Run("empty secret is generated", func(t *testing.T) {
		first, err := csrfSecret("")
		require.NoError(t, err)
		second, err := csrfSecret("")
		require.NoError(t, err)
		assert.Len(t, first, 32)
		assert.NotEqual(t, first, second)
	})
}

func TestTasksDBPath(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Database
		want string
	}{
		{"sqlite file", config.Database{Driver: "sqlite", DSN: "data/influence.db"}, "data/influence-tasks.db"},
		{"sqlite memory", config.Database{Driver: "sqlite", DSN: ":memory:"}, "influence-tasks.db"},
		{"postgres", config.Database{Driver: "postgres", DSN: "postgres://localhost/influence"}, "influence-tasks.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tasksDBPath(tt.cfg))
		})
	}
}

func TestNewRepositories(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "entrypoint.db"))
	require.NoError(t, err)
	defer db.Close()

	repos, err := NewRepositories(db)
	require.NoError(t, err)

	ctx := context.Background()
	companyID, err := repos.Companies.Create(ctx, &entities.Company{Name: "Acme", Email: "team@acme.com"})
	require.NoError(t, err)
	influencerID, err := repos.Influencers.Create(ctx, &entities.Influencer{Name: "Jamie", Email: "jamie@example.com"})
	require.NoError(t, err)
	announcementID, err := repos.Announcements.Create(ctx, &entities.Announcement{
		CompanyID: companyID, Title: "Spring launch", StartDate: time.Now(), EndDate: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	app, err := repos.Applications.Apply(ctx, announcementID, influencerID, "")
	require.NoError(t, err)
	assert.Equal(t, entities.ApplicationPending, app.Status)
}
