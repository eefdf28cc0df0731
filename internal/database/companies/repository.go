// Package companies provides database operations for company accounts and
// their domains.
package companies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/influence/internal/database"
	"github.com/mrlokans/influence/internal/database/announcements"
	"github.com/mrlokans/influence/internal/database/entitystore"
	"github.com/mrlokans/influence/internal/entities"
)

var mapping = entitystore.Mapping[entities.Company]{
	Table:   "companies",
	Columns: []string{"name", "email", "password_hash", "token_hash", "description", "website", "created_at"},
	Values: func(c *entities.Company) []any {
		return []any{c.Name, c.Email, c.PasswordHash, c.TokenHash, c.Description, c.Website, c.CreatedAt}
	},
	SetID: func(c *entities.Company, id uint) { c.ID = id },
	SelectOne: `SELECT id, name, email, password_hash, token_hash, description, website, created_at
		FROM companies WHERE id = ?`,
	Scan: func(row entitystore.RowScanner, c *entities.Company) error {
		return row.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.TokenHash, &c.Description, &c.Website, &c.CreatedAt)
	},
	ChildTable:  database.CompanyDomains.Table,
	ChildKey:    database.CompanyDomains.Key,
	ChildColumn: database.CompanyDomains.Column,
	SetChildren: func(c *entities.Company, domains []string) { c.Domains = domains },
}

// Repository handles all company database operations.
type Repository struct {
	conn  *database.Database
	db    *gorm.DB
	store *entitystore.Store[entities.Company]
}

// NewRepository creates a new companies repository.
func NewRepository(db *database.Database) (*Repository, error) {
	store, err := entitystore.New(db.SQL(), db.Dialect(), mapping)
	if err != nil {
		return nil, err
	}
	return &Repository{conn: db, db: db.DB, store: store}, nil
}

// Create stores the company and its domains atomically. The password hash
// must already be set; hashing happens before the write.
func (r *Repository) Create(ctx context.Context, c *entities.Company) (uint, error) {
	c.Email = database.NormalizeEmail(c.Email)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CreatedAt = c.CreatedAt.UTC()

	return r.store.Create(ctx, c, c.Domains)
}

// GetOne returns the company with its domains.
func (r *Repository) GetOne(ctx context.Context, id uint) (*entities.Company, bool, error) {
	return r.store.GetOne(ctx, id)
}

// GetByEmail looks a company up by login email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.Company, error) {
	return r.first(ctx, "email = ?", database.NormalizeEmail(email))
}

// GetByTokenHash looks a company up by the hash of its API token.
func (r *Repository) GetByTokenHash(ctx context.Context, hash string) (*entities.Company, error) {
	if hash == "" {
		return nil, database.ErrNotFound
	}
	return r.first(ctx, "token_hash = ?", hash)
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*entities.Company, error) {
	var company entities.Company
	err := r.db.WithContext(ctx).Where(query, args...).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	domains, err := database.LoadChildren(ctx, r.db, database.CompanyDomains, []uint{company.ID})
	if err != nil {
		return nil, err
	}
	company.Domains = domains[company.ID]
	return &company, nil
}

// SetTokenHash replaces the stored API token hash. An empty hash revokes it.
func (r *Repository) SetTokenHash(ctx context.Context, id uint, hash string) error {
	result := r.db.WithContext(ctx).Model(&entities.Company{}).Where("id = ?", id).Update("token_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update token for company %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// List returns every company ordered by name.
func (r *Repository) List(ctx context.Context) ([]entities.Company, error) {
	var list []entities.Company
	if err := r.db.WithContext(ctx).Order("name, id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	ids := make([]uint, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	domains, err := database.LoadChildren(ctx, r.db, database.CompanyDomains, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Domains = domains[list[i].ID]
	}
	return list, nil
}

// Delete removes the company, its domains and its announcements in one
// transaction.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.conn.Transaction(ctx, func(tx *gorm.DB) error {
		var announcementIDs []uint
		if err := tx.Model(&entities.Announcement{}).Where("company_id = ?", id).Pluck("id", &announcementIDs).Error; err != nil {
			return fmt.Errorf("failed to find announcements: %w", err)
		}
		if err := announcements.DeleteWithTx(tx, announcementIDs...); err != nil {
			return err
		}
		if err := database.DeleteChildren(tx, database.CompanyDomains, id); err != nil {
			return err
		}
		result := tx.Delete(&entities.Company{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete company %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}
