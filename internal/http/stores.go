package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/influence/internal/database/announcements"
	"github.com/mrlokans/influence/internal/database/influencers"
	"github.com/mrlokans/influence/internal/entities"
)

// Registrar creates accounts. Passwords are hashed before anything is stored.
type Registrar interface {
	RegisterCompany(ctx context.Context, c *entities.Company, password string) (uint, error)
	RegisterInfluencer(ctx context.Context, i *entities.Influencer, password string) (uint, error)
}

// CompanyStore defines the interface for company reads and deletes.
type CompanyStore interface {
	GetOne(ctx context.Context, id uint) (*entities.Company, bool, error)
	List(ctx context.Context) ([]entities.Company, error)
	Delete(ctx context.Context, id uint) error
}

// InfluencerStore defines the interface for influencer reads and deletes.
type InfluencerStore interface {
	GetOne(ctx context.Context, id uint) (*entities.Influencer, bool, error)
	List(ctx context.Context, filter influencers.Filter) ([]entities.Influencer, error)
	Delete(ctx context.Context, id uint) error
}

// AnnouncementStore defines the interface for announcement operations.
type AnnouncementStore interface {
	Create(ctx context.Context, a *entities.Announcement) (uint, error)
	GetOne(ctx context.Context, id uint) (*entities.Announcement, bool, error)
	List(ctx context.Context, filter announcements.Filter) ([]entities.Announcement, error)
	Delete(ctx context.Context, id uint) error
	SetStatus(ctx context.Context, id uint, status entities.AnnouncementStatus) error
}

// ApplicationStore defines the interface for application operations.
type ApplicationStore interface {
	Apply(ctx context.Context, announcementID, influencerID uint, message string) (*entities.Application, error)
	Get(ctx context.Context, id uint) (*entities.Application, error)
	ListForAnnouncement(ctx context.Context, announcementID uint) ([]entities.Application, error)
	ListForInfluencer(ctx context.Context, influencerID uint) ([]entities.Application, error)
	SetStatus(ctx context.Context, id uint, status entities.ApplicationStatus) (*entities.Application, error)
}

// TaskRunner is the part of the task queue the API exposes.
type TaskRunner interface {
	EnqueueCloseExpired(trigger string) (string, error)
	Status(ctx context.Context, id string) (backlite.TaskStatus, error)
}

// dateLayout is the format of announcement dates in forms and query strings.
const dateLayout = time.DateOnly
