package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/database"
	"github.com/mrlokans/influence/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAuthRequired       = errors.New("authentication required")
	ErrInvalidRole        = errors.New("invalid role")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailInvalid       = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrChildValueTooLong  = fmt.Errorf("domains and subjects must be at most %d characters", entities.MaxChildValueLength)
	ErrChildValueEmpty    = errors.New("domains and subjects must not be empty")
)

// IsValidationError reports whether err describes bad input rather than a
// storage failure.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrNameRequired, ErrEmailInvalid, ErrPasswordRequired,
		ErrPasswordTooShort, ErrPasswordTooLong,
		ErrChildValueTooLong, ErrChildValueEmpty, ErrInvalidRole,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// CompanyStore is the subset of the companies repository the service needs.
type CompanyStore interface {
	Create(ctx context.Context, c *entities.Company) (uint, error)
	GetOne(ctx context.Context, id uint) (*entities.Company, bool, error)
	GetByEmail(ctx context.Context, email string) (*entities.Company, error)
	GetByTokenHash(ctx context.Context, hash string) (*entities.Company, error)
	SetTokenHash(ctx context.Context, id uint, hash string) error
}

// InfluencerStore is the subset of the influencers repository the service needs.
type InfluencerStore interface {
	Create(ctx context.Context, i *entities.Influencer) (uint, error)
	GetOne(ctx context.Context, id uint) (*entities.Influencer, bool, error)
	GetByEmail(ctx context.Context, email string) (*entities.Influencer, error)
	GetByTokenHash(ctx context.Context, hash string) (*entities.Influencer, error)
	SetTokenHash(ctx context.Context, id uint, hash string) error
}

// Service handles account registration, login and API tokens for both
// companies and influencers.
type Service struct {
	companies   CompanyStore
	influencers InfluencerStore
	config      config.Auth
}

// NewService creates a new authentication service.
func NewService(companies CompanyStore, influencers InfluencerStore, cfg config.Auth) *Service {
	return &Service{
		companies:   companies,
		influencers: influencers,
		config:      cfg,
	}
}

func (s *Service) Config() config.Auth {
	return s.config
}

// RegisterCompany validates the company, hashes the password and stores the
// company with its domains. Hashing runs before the write transaction opens.
func (s *Service) RegisterCompany(ctx context.Context, c *entities.Company, password string) (uint, error) {
	if err := validateAccount(c.Name, c.Email, c.Domains); err != nil {
		return 0, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return 0, err
	}
	c.PasswordHash = hash
	return s.companies.Create(ctx, c)
}

// RegisterInfluencer is RegisterCompany for influencers and their subjects.
func (s *Service) RegisterInfluencer(ctx context.Context, i *entities.Influencer, password string) (uint, error) {
	if err := validateAccount(i.Name, i.Email, i.Subjects); err != nil {
		return 0, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return 0, err
	}
	i.PasswordHash = hash
	return s.influencers.Create(ctx, i)
}

func (s *Service) hash(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}
	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func validateAccount(name, email string, children []string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	email = database.NormalizeEmail(email)
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return ValidateChildValues(children)
}

// ValidateChildValues checks domains or subjects before they reach the store.
func ValidateChildValues(values []string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return ErrChildValueEmpty
		}
		if utf8.RuneCountInString(v) > entities.MaxChildValueLength {
			return fmt.Errorf("%w: %q", ErrChildValueTooLong, v)
		}
	}
	return nil
}

// Authenticate checks an email and password against companies first, then
// influencers. The same error is returned for unknown emails and bad passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entities.Account, error) {
	company, err := s.companies.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := CheckPassword(password, company.PasswordHash); err != nil {
			return nil, ErrInvalidCredentials
		}
		return companyAccount(company), nil
	case !errors.Is(err, database.ErrNotFound):
		return nil, err
	}

	influencer, err := s.influencers.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := CheckPassword(password, influencer.PasswordHash); err != nil {
			return nil, ErrInvalidCredentials
		}
		return influencerAccount(influencer), nil
	case errors.Is(err, database.ErrNotFound):
		return nil, ErrInvalidCredentials
	default:
		return nil, err
	}
}

// IssueToken creates a new API token for the account, replacing any previous
// one. Only the hash is stored; the plaintext is returned once.
func (s *Service) IssueToken(ctx context.Context, account *entities.Account) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	switch account.Role {
	case entities.RoleCompany:
		err = s.companies.SetTokenHash(ctx, account.ID, hash)
	case entities.RoleInfluencer:
		err = s.influencers.SetTokenHash(ctx, account.ID, hash)
	default:
		return "", ErrInvalidRole
	}
	if err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return plaintext, nil
}

// ValidateToken resolves a plaintext API token to its account.
func (s *Service) ValidateToken(ctx context.Context, token string) (*entities.Account, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	hash := HashToken(token)

	company, err := s.companies.GetByTokenHash(ctx, hash)
	if err == nil {
		return companyAccount(company), nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	influencer, err := s.influencers.GetByTokenHash(ctx, hash)
	if err == nil {
		return influencerAccount(influencer), nil
	}
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	return nil, err
}

// GetAccount loads the account a session points at.
func (s *Service) GetAccount(ctx context.Context, role entities.Role, id uint) (*entities.Account, error) {
	switch role {
	case entities.RoleCompany:
		company, found, err := s.companies.GetOne(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, database.ErrNotFound
		}
		return companyAccount(company), nil
	case entities.RoleInfluencer:
		influencer, found, err := s.influencers.GetOne(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, database.ErrNotFound
		}
		return influencerAccount(influencer), nil
	default:
		return nil, ErrInvalidRole
	}
}

func companyAccount(c *entities.Company) *entities.Account {
	return &entities.Account{Role: entities.RoleCompany, ID: c.ID, Name: c.Name, Email: c.Email}
}

func influencerAccount(i *entities.Influencer) *entities.Account {
	return &entities.Account{Role: entities.RoleInfluencer, ID: i.ID, Name: i.Name, Email: i.Email}
}
