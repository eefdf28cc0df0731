// Package influencers provides database operations for influencer accounts
// and the subjects they cover.
package influencers

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

var mapping = entitystore.Mapping[entities.Influencer]{
	Table: "influencers",
	Columns: []string{
		"name", "email", "password_hash", "token_hash", "bio", "platform", "followers", "created_at",
	},
	Values: func(i *entities.Influencer) []any {
		return []any{i.Name, i.Email, i.PasswordHash, i.TokenHash, i.Bio, i.Platform, i.Followers, i.CreatedAt}
	},
	SetID: func(i *entities.Influencer, id uint) { i.ID = id },
	SelectOne: `SELECT id, name, email, password_hash, token_hash, bio, platform, followers, created_at
		FROM influencers WHERE id = ?`,
	Scan: func(row entitystore.RowScanner, i *entities.Influencer) error {
		return row.Scan(&i.ID, &i.Name, &i.Email, &i.PasswordHash, &i.TokenHash, &i.Bio, &i.Platform, &i.Followers, &i.CreatedAt)
	},
	ChildTable:  database.InfluencerSubjects.Table,
	ChildKey:    database.InfluencerSubjects.Key,
	ChildColumn: database.InfluencerSubjects.Column,
	SetChildren: func(i *entities.Influencer, subjects []string) { i.Subjects = subjects },
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Subject  string
	Platform string
}

// Repository handles all influencer database operations.
type Repository struct {
	conn  *database.Database
	db    *gorm.DB
	store *entitystore.Store[entities.Influencer]
}

// NewRepository creates a new influencers repository.
func NewRepository(db *database.Database) (*Repository, error) {
	store, err := entitystore.New(db.SQL(), db.Dialect(), mapping)
	if err != nil {
		return nil, err
	}
	return &Repository{conn: db, db: db.DB, store: store}, nil
}

// Create stores the influencer and their subjects atomically.
func (r *Repository) Create(ctx context.Context, i *entities.Influencer) (uint, error) {
	i.Email = database.NormalizeEmail(i.Email)
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	i.CreatedAt = i.CreatedAt.UTC()

	return r.store.Create(ctx, i, i.Subjects)
}

func (r *Repository) GetOne(ctx context.Context, id uint) (*entities.Influencer, bool, error) {
	return r.store.GetOne(ctx, id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.Influencer, error) {
	return r.first(ctx, "email = ?", database.NormalizeEmail(email))
}

func (r *Repository) GetByTokenHash(ctx context.Context, hash string) (*entities.Influencer, error) {
	if hash == "" {
		return nil, database.ErrNotFound
	}
	return r.first(ctx, "token_hash = ?", hash)
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*entities.Influencer, error) {
	var influencer entities.Influencer
	err := r.db.WithContext(ctx).Where(query, args...).First(&influencer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get influencer: %w", err)
	}

	subjects, err := database.LoadChildren(ctx, r.db, database.InfluencerSubjects, []uint{influencer.ID})
	if err != nil {
		return nil, err
	}
	influencer.Subjects = subjects[influencer.ID]
	return &influencer, nil
}

func (r *Repository) SetTokenHash(ctx context.Context, id uint, hash string) error {
	result := r.db.WithContext(ctx).Model(&entities.Influencer{}).Where("id = ?", id).Update("token_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update token for influencer %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// List returns influencers matching the filter, largest audience first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]entities.Influencer, error) {
	q := r.db.WithContext(ctx).Model(&entities.Influencer{})
	if filter.Platform != "" {
		q = q.Where("platform = ?", filter.Platform)
	}
	if filter.Subject != "" {
		q = q.Where(`EXISTS (SELECT 1 FROM influencer_subjects s
			WHERE s.influencer_id = influencers.id AND s.subject = ?)`, filter.Subject)
	}

	var list []entities.Influencer
	if err := q.Order("followers DESC, id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list influencers: %w", err)
	}

	ids := make([]uint, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	subjects, err := database.LoadChildren(ctx, r.db, database.InfluencerSubjects, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Subjects = subjects[list[i].ID]
	}
	return list, nil
}

// Delete removes the influencer, their subjects and their applications.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.conn.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("influencer_id = ?", id).Delete(&entities.Application{}).Error; err != nil {
			return fmt.Errorf("failed to delete applications: %w", err)
		}
		if err := database.DeleteChildren(tx, database.InfluencerSubjects, id); err != nil {
			return err
		}
		result := tx.Delete(&entities.Influencer{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete influencer %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}
