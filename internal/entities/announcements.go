package entities

import "time"

type AnnouncementStatus string

const (
	AnnouncementOpen   AnnouncementStatus = "open"
	AnnouncementClosed AnnouncementStatus = "closed"
)

type Announcement struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	CompanyID     uint               `gorm:"index;not null" json:"company_id"`
	CompanyName   string             `gorm:"->;-:migration" json:"company_name,omitempty"` // Joined from companies on read
	Title         string             `gorm:"size:255;not null" json:"title"`
	Description   string             `gorm:"size:4000" json:"description,omitempty"`
	MaxApplicants int                `json:"max_applicants"`
	Payment       int64              `json:"payment"` // Whole currency units
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `gorm:"index" json:"end_date"`
	Status        AnnouncementStatus `gorm:"size:20;index;not null;default:open" json:"status"`
	CreatedAt     time.Time          `json:"created_at"`

	Subjects []string `gorm:"-" json:"subjects"`
}

func (Announcement) TableName() string { return "announcements" }

type AnnouncementSubject struct {
	ID             uint   `gorm:"primaryKey"`
	AnnouncementID uint   `gorm:"index;not null"`
	Subject        string `gorm:"size:50;not null"`
}

func (AnnouncementSubject) TableName() string { return "announcement_subjects" }

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Application is an influencer's request to take part in an announcement.
type Application struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	AnnouncementID    uint              `gorm:"uniqueIndex:idx_application_pair;not null" json:"announcement_id"`
	InfluencerID      uint              `gorm:"uniqueIndex:idx_application_pair;index;not null" json:"influencer_id"`
	AnnouncementTitle string            `gorm:"->;-:migration" json:"announcement_title,omitempty"`
	InfluencerName    string            `gorm:"->;-:migration" json:"influencer_name,omitempty"`
	Message           string            `gorm:"size:2000" json:"message,omitempty"`
	Status            ApplicationStatus `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (Application) TableName() string { return "applications" }
