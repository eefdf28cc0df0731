// Package announcements provides database operations for announcements and
// their subjects.
//
// # Usage
//
//	repo, err := announcements.NewRepository(db)
//	id, err := repo.Create(ctx, &entities.Announcement{Title: "Spring launch", Subjects: []string{"Fashion"}})
//	a, found, err := repo.GetOne(ctx, id)
package announcements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/influence/internal/database"
	"github.com/mrlokans/influence/internal/database/entitystore"
	"github.com/mrlokans/influence/internal/entities"
)

var mapping = entitystore.Mapping[entities.Announcement]{
	Table: "announcements",
	Columns: []string{
		"company_id", "title", "description", "max_applicants", "payment",
		"start_date", "end_date", "status", "created_at",
	},
	Values: func(a *entities.Announcement) []any {
		return []any{
			a.CompanyID, a.Title, a.Description, a.MaxApplicants, a.Payment,
			a.StartDate, a.EndDate, string(a.Status), a.CreatedAt,
		}
	},
	SetID: func(a *entities.Announcement, id uint) { a.ID = id },
	SelectOne: `SELECT a.id, a.company_id, COALESCE(c.name, ''), a.title, a.description,
		a.max_applicants, a.payment, a.start_date, a.end_date, a.status, a.created_at
		FROM announcements a
		LEFT JOIN companies c ON c.id = a.company_id
		WHERE a.id = ?`,
	Scan: func(row entitystore.RowScanner, a *entities.Announcement) error {
		return row.Scan(&a.ID, &a.CompanyID, &a.CompanyName, &a.Title, &a.Description,
			&a.MaxApplicants, &a.Payment, &a.StartDate, &a.EndDate, &a.Status, &a.CreatedAt)
	},
	ChildTable:  database.AnnouncementSubjects.Table,
	ChildKey:    database.AnnouncementSubjects.Key,
	ChildColumn: database.AnnouncementSubjects.Column,
	SetChildren: func(a *entities.Announcement, subjects []string) { a.Subjects = subjects },
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	CompanyID uint
	Subject   string
	Status    entities.AnnouncementStatus
	Limit     int
}

// Repository handles all announcement database operations.
type Repository struct {
	conn  *database.Database
	db    *gorm.DB
	store *entitystore.Store[entities.Announcement]
}

// NewRepository creates a new announcements repository.
func NewRepository(db *database.Database) (*Repository, error) {
	store, err := entitystore.New(db.SQL(), db.Dialect(), mapping)
	if err != nil {
		return nil, err
	}
	return &Repository{conn: db, db: db.DB, store: store}, nil
}

// Create stores the announcement and its subjects atomically and returns the
// new id. Status defaults to open.
func (r *Repository) Create(ctx context.Context, a *entities.Announcement) (uint, error) {
	if a.Status == "" {
		a.Status = entities.AnnouncementOpen
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.StartDate = a.StartDate.UTC()
	a.EndDate = a.EndDate.UTC()

	return r.store.Create(ctx, a, a.Subjects)
}

// GetOne returns the announcement with its subjects and company name.
func (r *Repository) GetOne(ctx context.Context, id uint) (*entities.Announcement, bool, error) {
	return r.store.GetOne(ctx, id)
}

// List returns announcements matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]entities.Announcement, error) {
	q := r.db.WithContext(ctx).
		Model(&entities.Announcement{}).
		Select("announcements.*, companies.name AS company_name").
		Joins("LEFT JOIN companies ON companies.id = announcements.company_id")

	if filter.CompanyID != 0 {
		q = q.Where("announcements.company_id = ?", filter.CompanyID)
	}
	if filter.Status != "" {
		q = q.Where("announcements.status = ?", string(filter.Status))
	}
	if filter.Subject != "" {
		q = q.Where(`EXISTS (SELECT 1 FROM announcement_subjects s
			WHERE s.announcement_id = announcements.id AND s.subject = ?)`, filter.Subject)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var list []entities.Announcement
	if err := q.Order("announcements.created_at DESC, announcements.id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}

	ids := make([]uint, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	subjects, err := database.LoadChildren(ctx, r.db, database.AnnouncementSubjects, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Subjects = subjects[list[i].ID]
	}
	return list, nil
}

// Delete removes the announcement, its subjects and its applications.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.conn.Transaction(ctx, func(tx *gorm.DB) error {
		return DeleteWithTx(tx, id)
	})
}

// DeleteWithTx removes announcements and everything hanging off them inside
// an existing transaction. It returns ErrNotFound when none of ids existed.
func DeleteWithTx(tx *gorm.DB, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("announcement_id IN ?", ids).Delete(&entities.Application{}).Error; err != nil {
		return fmt.Errorf("failed to delete applications: %w", err)
	}
	if err := database.DeleteChildren(tx, database.AnnouncementSubjects, ids...); err != nil {
		return err
	}
	result := tx.Where("id IN ?", ids).Delete(&entities.Announcement{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete announcements: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// CloseExpired marks every open announcement whose end date is before now as
// closed and returns how many changed.
func (r *Repository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Announcement{}).
		Where("status = ? AND end_date < ?", string(entities.AnnouncementOpen), now.UTC()).
		Update("status", string(entities.AnnouncementClosed))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to close expired announcements: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// SetStatus opens or closes an announcement.
func (r *Repository) SetStatus(ctx context.Context, id uint, status entities.AnnouncementStatus) error {
	if status != entities.AnnouncementOpen && status != entities.AnnouncementClosed {
		return fmt.Errorf("invalid announcement status %q", status)
	}
	result := r.db.WithContext(ctx).
		Model(&entities.Announcement{}).
		Where("id = ?", id).
		Update("status", string(status))
	if result.Error != nil {
		return fmt.Errorf("failed to update announcement %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err means the announcement does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
