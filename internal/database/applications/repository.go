// Package applications provides database operations for influencer
// applications to announcements.
//
// # Usage
//
//	repo := applications.NewRepository(db.DB)
//	app, err := repo.Apply(ctx, announcementID, influencerID, "I'd love to join")
package applications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/influence/internal/database"
	"github.com/mrlokans/influence/internal/entities"
)

var (
	ErrAnnouncementClosed = errors.New("announcement is closed")
	ErrAlreadyApplied     = errors.New("influencer already applied to this announcement")
	ErrAnnouncementFull   = errors.New("announcement has no free places")
	ErrInvalidStatus      = errors.New("invalid application status")
)

// IsConflict reports whether err is a business rule rejection rather than a
// missing record or a storage failure.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAnnouncementClosed) ||
		errors.Is(err, ErrAlreadyApplied) ||
		errors.Is(err, ErrAnnouncementFull)
}

// Repository handles all application database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new applications repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Apply records an influencer's application. The announcement must be open
// and not past its end date, the influencer must not have applied before and
// pending plus accepted applications must stay below max_applicants (zero
// means unlimited).
func (r *Repository) Apply(ctx context.Context, announcementID, influencerID uint, message string) (*entities.Application, error) {
	app := &entities.Application{
		AnnouncementID: announcementID,
		InfluencerID:   influencerID,
		Message:        message,
		Status:         entities.ApplicationPending,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		announcement, err := lockAnnouncement(tx, announcementID)
		if err != nil {
			return err
		}

		var influencers int64
		if err := tx.Model(&entities.Influencer{}).Where("id = ?", influencerID).Count(&influencers).Error; err != nil {
			return fmt.Errorf("failed to load influencer: %w", err)
		}
		if influencers == 0 {
			return fmt.Errorf("influencer %d: %w", influencerID, database.ErrNotFound)
		}

		if announcement.Status != entities.AnnouncementOpen ||
			(!announcement.EndDate.IsZero() && announcement.EndDate.Before(r.now())) {
			return ErrAnnouncementClosed
		}

		var existing int64
		if err := tx.Model(&entities.Application{}).
			Where("announcement_id = ? AND influencer_id = ?", announcementID, influencerID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check existing applications: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyApplied
		}

		if err := checkCapacity(tx, announcement); err != nil {
			return err
		}

		if err := tx.Create(app).Error; err != nil {
			if database.IsConstraintViolation(err) {
				return ErrAlreadyApplied
			}
			return fmt.Errorf("failed to create application: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// lockAnnouncement loads the announcement holding its row lock until the
// transaction ends, so capacity checks of concurrent transactions are
// serialized. PostgreSQL uses SELECT ... FOR UPDATE; SQL Server takes the
// lock with a no-op update; SQLite transactions already start with
// BEGIN IMMEDIATE.
func lockAnnouncement(tx *gorm.DB, id uint) (*entities.Announcement, error) {
	query := tx
	switch tx.Dialector.Name() {
	case "postgres":
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	case "sqlserver":
		if err := tx.Model(&entities.Announcement{}).Where("id = ?", id).
			UpdateColumn("status", gorm.Expr("status")).Error; err != nil {
			return nil, fmt.Errorf("failed to lock announcement: %w", err)
		}
	}

	var announcement entities.Announcement
	if err := query.First(&announcement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("announcement %d: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load announcement: %w", err)
	}
	return &announcement, nil
}

// checkCapacity fails with ErrAnnouncementFull when pending plus accepted
// applications already fill max_applicants.
func checkCapacity(tx *gorm.DB, announcement *entities.Announcement) error {
	if announcement.MaxApplicants <= 0 {
		return nil
	}
	var taken int64
	if err := tx.Model(&entities.Application{}).
		Where("announcement_id = ? AND status IN ?", announcement.ID,
			[]string{string(entities.ApplicationPending), string(entities.ApplicationAccepted)}).
		Count(&taken).Error; err != nil {
		return fmt.Errorf("failed to count applications: %w", err)
	}
	if taken >= int64(announcement.MaxApplicants) {
		return ErrAnnouncementFull
	}
	return nil
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&entities.Application{}).
		Select("applications.*, announcements.title AS announcement_title, influencers.name AS influencer_name").
		Joins("LEFT JOIN announcements ON announcements.id = applications.announcement_id").
		Joins("LEFT JOIN influencers ON influencers.id = applications.influencer_id")
}

// Get returns one application with the announcement title and influencer name.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.Application, error) {
	var app entities.Application
	err := r.joined(ctx).Where("applications.id = ?", id).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application %d: %w", id, err)
	}
	return &app, nil
}

// ListForAnnouncement returns the announcement's applications, oldest first.
func (r *Repository) ListForAnnouncement(ctx context.Context, announcementID uint) ([]entities.Application, error) {
	var list []entities.Application
	err := r.joined(ctx).
		Where("applications.announcement_id = ?", announcementID).
		Order("applications.created_at, applications.id").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return list, nil
}

// ListForInfluencer returns the influencer's applications, newest first.
func (r *Repository) ListForInfluencer(ctx context.Context, influencerID uint) ([]entities.Application, error) {
	var list []entities.Application
	err := r.joined(ctx).
		Where("applications.influencer_id = ?", influencerID).
		Order("applications.created_at DESC, applications.id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return list, nil
}

// SetStatus accepts or rejects an application. Moving a rejected
// application back to pending or accepted takes a place again, so it is
// refused with ErrAnnouncementFull when none is left.
func (r *Repository) SetStatus(ctx context.Context, id uint, status entities.ApplicationStatus) (*entities.Application, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current entities.Application
		if err := tx.Select("id", "announcement_id", "status").First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return database.ErrNotFound
			}
			return fmt.Errorf("failed to load application %d: %w", id, err)
		}

		if current.Status == entities.ApplicationRejected && status != entities.ApplicationRejected {
			announcement, err := lockAnnouncement(tx, current.AnnouncementID)
			if err != nil {
				return err
			}
			if err := checkCapacity(tx, announcement); err != nil {
				return err
			}
		}

		result := tx.Model(&entities.Application{}).
			Where("id = ?", id).
			Updates(map[string]any{"status": string(status), "updated_at": r.now().UTC()})
		if result.Error != nil {
			return fmt.Errorf("failed to update application %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}
