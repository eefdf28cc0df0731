package entities

import "time"

// Role identifies which kind of account is acting.
type Role string

const (
	RoleCompany    Role = "company"
	RoleInfluencer Role = "influencer"
)

func (r Role) Valid() bool {
	return r == RoleCompany || r == RoleInfluencer
}

// MaxChildValueLength is the column size of every domain and subject value.
const MaxChildValueLength = 50

type Company struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	TokenHash    string    `gorm:"index;size:64" json:"-"` // SHA-256 of the API token
	Description  string    `gorm:"size:4000" json:"description,omitempty"`
	Website      string    `gorm:"size:512" json:"website,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	Domains []string `gorm:"-" json:"domains"`
}

func (Company) TableName() string { return "companies" }

// CompanyDomain is one row of a company's domains.
type CompanyDomain struct {
	ID        uint   `gorm:"primaryKey"`
	CompanyID uint   `gorm:"index;not null"`
	Domain    string `gorm:"size:50;not null"`
}

func (CompanyDomain) TableName() string { return "company_domains" }

type Influencer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	TokenHash    string    `gorm:"index;size:64" json:"-"`
	Bio          string    `gorm:"size:4000" json:"bio,omitempty"`
	Platform     string    `gorm:"size:100" json:"platform,omitempty"` // e.g., "instagram", "youtube"
	Followers    int       `json:"followers"`
	CreatedAt    time.Time `json:"created_at"`

	Subjects []string `gorm:"-" json:"subjects"`
}

func (Influencer) TableName() string { return "influencers" }

type InfluencerSubject struct {
	ID           uint   `gorm:"primaryKey"`
	InfluencerID uint   `gorm:"index;not null"`
	Subject      string `gorm:"size:50;not null"`
}

func (InfluencerSubject) TableName() string { return "influencer_subjects" }

// Account is the authenticated identity behind a request.
type Account struct {
	Role  Role   `json:"role"`
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
