package announcements

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/influence/internal/database"
	"github.com/mrlokans/influence/internal/database/entitystore"
	"github.com/mrlokans/influence/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *database.Database, func()) {
	t.Helper()
	dbPath := "./test_announcements_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	repo, err := NewRepository(db)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return repo, db, cleanup
}

func createCompany(t *testing.T, db *database.Database, name string) *entities.Company {
	t.Helper()
	company := &entities.Company{Name: name, Email: strings.ToLower(strings.ReplaceAll(name, " ", "")) + "@example.com"}
	require.NoError(t, db.DB.Create(company).Error)
	return company
}

func newAnnouncement(companyID uint, title string, subjects ...string) *entities.Announcement {
	now := time.Now()
	return &entities.Announcement{
		CompanyID:     companyID,
		Title:         title,
		Description:   "Looking for creators",
		MaxApplicants: 5,
		Payment:       300,
		StartDate:     now,
		EndDate:       now.Add(30 * 24 * time.Hour),
		Subjects:      subjects,
	}
}

func countRows(t *testing.T, db *database.Database, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.DB.Model(model).Count(&n).Error)
	return n
}

func TestRepository_CreateAndGetOne(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	company := createCompany(t, db, "Acme Media")

	a := &entities.Announcement{
		CompanyID:     company.ID,
		Title:         "Unit test announcement",
		MaxApplicants: 5,
		StartDate:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Subjects:      []string{"Fashion", "Lifestyle", "Tech"},
	}
	id, err := repo.Create(ctx, a)
	require.NoError(t, err)
	assert.Greater(t, id, uint(0))
	assert.Equal(t, id, a.ID)

	got, found, err := repo.GetOne(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Unit test announcement", got.Title)
	assert.Equal(t, 5, got.MaxApplicants)
	assert.Equal(t, "Acme Media", got.CompanyName)
	assert.Equal(t, entities.AnnouncementOpen, got.Status)
	assert.True(t, got.EndDate.Equal(a.EndDate))
	assert.False(t, got.CreatedAt.IsZero())
	assert.ElementsMatch(t, []string{"Fashion", "Lifestyle", "Tech"}, got.Subjects)
}

func TestRepository_Create_NoSubjects(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	company := createCompany(t, db, "Acme Media")

	id, err := repo.Create(ctx, newAnnouncement(company.ID, "Bare"))
	require.NoError(t, err)

	got, found, err := repo.GetOne(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotNil(t, got.Subjects)
	assert.Empty(t, got.Subjects)
}

func TestRepository_Create_SubjectTooLongIsAtomic(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	company := createCompany(t, db, "Acme Media")

	a := newAnnouncement(company.ID, "Broken", "Fashion", strings.Repeat("x", 51))
	id, err := repo.Create(ctx, a)

	require.Error(t, err)
	assert.Zero(t, id)
	assert.Zero(t, a.ID)
	assert.ErrorIs(t, err, entitystore.ErrTransactionAborted)
	assert.True(t, database.IsConstraintViolation(err))

	assert.Zero(t, countRows(t, db, &entities.Announcement{}))
	assert.Zero(t, countRows(t, db, &entities.AnnouncementSubject{}))
}

func TestRepository_Create_Concurrent(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	company := createCompany(t, db, "Acme Media")

	const writers = 6
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, newAnnouncement(company.ID, "Parallel", "Tech", "Travel"))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(writers), countRows(t, db, &entities.Announcement{}))
	assert.Equal(t, int64(writers*2), countRows(t, db, &entities.AnnouncementSubject{}))
}

func TestRepository_GetOne_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	got, found, err := repo.GetOne(context.Background(), 12345)

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestRepository_List(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	acme := createCompany(t, db, "Acme Media")
	globex := createCompany(t, db, "Globex")

	first := newAnnouncement(acme.ID, "First", "Fashion")
	first.CreatedAt = time.Now().Add(-2 * time.Hour)
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)

	second := newAnnouncement(acme.ID, "Second", "Tech", "Fashion")
	second.CreatedAt = time.Now().Add(-1 * time.Hour)
	_, err = repo.Create(ctx, second)
	require.NoError(t, err)

	third := newAnnouncement(globex.ID, "Third", "Tech")
	third.Status = entities.AnnouncementClosed
	_, err = repo.Create(ctx, third)
	require.NoError(t, err)

	t.Run("all, newest first", func(t *testing.T) {
		list, err := repo.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Third", list[0].Title)
		assert.Equal(t, "Second", list[1].Title)
		assert.Equal(t, "First", list[2].Title)
		assert.Equal(t, "Globex", list[0].CompanyName)
		assert.Equal(t, []string{"Tech", "Fashion"}, list[1].Subjects)
	})

	t.Run("by company", func(t *testing.T) {
		list, err := repo.List(ctx, Filter{CompanyID: globex.ID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Third", list[0].Title)
	})

	t.Run("by subject", func(t *testing.T) {
		list, err := repo.List(ctx, Filter{Subject: "Fashion"})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("by status", func(t *testing.T) {
		list, err := repo.List(ctx, Filter{Status: entities.AnnouncementOpen})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("limit", func(t *testing.T) {
		list, err := repo.List(ctx, Filter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("no match returns empty", func(t *testing.T) {
		list, err := repo.List(ctx, Filter{Subject: "Gardening"})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestRepository_Delete(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	company := createCompany(t, db, "Acme Media")

	id, err := repo.Create(ctx, newAnnouncement(company.ID, "Doomed", "Fashion", "Tech"))
	require.NoError(t, err)
	require.NoError(t, db.DB.Create(&entities.Application{AnnouncementID: id, InfluencerID: 1, Status: entities.ApplicationPending}).Error)

	require.NoError(t, repo.Delete(ctx, id))

	_, found, err := repo.GetOne(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, countRows(t, db, &entities.AnnouncementSubject{}))
	assert.Zero(t, countRows(t, db, &entities.Application{}))

	err = repo.Delete(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.True(t, IsNotFound(err))
}

func TestRepository_CloseExpired(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	company := createCompany(t, db, "Acme Media")
	now := time.Now()

	expired := newAnnouncement(company.ID, "Expired")
	expired.EndDate = now.Add(-time.Hour)
	expiredID, err := repo.Create(ctx, expired)
	require.NoError(t, err)

	running := newAnnouncement(company.ID, "Running")
	runningID, err := repo.Create(ctx, running)
	require.NoError(t, err)

	closed, err := repo.CloseExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)

	got, _, err := repo.GetOne(ctx, expiredID)
	require.NoError(t, err)
	assert.Equal(t, entities.AnnouncementClosed, got.Status)

	got, _, err = repo.GetOne(ctx, runningID)
	require.NoError(t, err)
	assert.Equal(t, entities.AnnouncementOpen, got.Status)

	closed, err = repo.CloseExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, closed)
}

func TestRepository_SetStatus(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	company := createCompany(t, db, "Acme Media")

	id, err := repo.Create(ctx, newAnnouncement(company.ID, "Toggle"))
	require.NoError(t, err)

	require.NoError(t, repo.SetStatus(ctx, id, entities.AnnouncementClosed))
	got, _, err := repo.GetOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entities.AnnouncementClosed, got.Status)

	assert.Error(t, repo.SetStatus(ctx, id, "archived"))
	assert.ErrorIs(t, repo.SetStatus(ctx, 999, entities.AnnouncementOpen), database.ErrNotFound)
}
