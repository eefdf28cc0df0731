// Package client talks to the Infinite Influence REST API.
//
// # Usage
//
//	c := client.New("http://localhost:8188", token)
//	id, err := c.CreateAnnouncement(ctx, client.AnnouncementInput{Title: "Spring launch", EndDate: end})
//	a, err := c.GetAnnouncement(ctx, id)
//	if client.IsNotFound(err) { ... }
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/influence/internal/entities"
)

const defaultTimeout = 30 * time.Second

// Client is a thin JSON client. It does not retry.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the server at baseURL. token may be empty when
// the server does not enforce accounts.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// SetToken switches the bearer token used for later requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// AnnouncementInput is the body of CreateAnnouncement. CompanyID is ignored
// by servers that take the company from the token.
type AnnouncementInput struct {
	CompanyID     uint      `json:"company_id,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	MaxApplicants int       `json:"max_applicants"`
	Payment       int64     `json:"payment"`
	StartDate     time.Time `json:"start_date,omitempty"`
	EndDate       time.Time `json:"end_date"`
	Subjects      []string  `json:"subjects,omitempty"`
}

// AnnouncementFilter narrows ListAnnouncements. Zero values match everything.
type AnnouncementFilter struct {
	CompanyID uint
	Subject   string
	Status    entities.AnnouncementStatus
	Limit     int
}

type CompanyInput struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Description string   `json:"description,omitempty"`
	Website     string   `json:"website,omitempty"`
	Domains     []string `json:"domains,omitempty"`
}

type InfluencerInput struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Bio       string   `json:"bio,omitempty"`
	Platform  string   `json:"platform,omitempty"`
	Followers int      `json:"followers"`
	Subjects  []string `json:"subjects,omitempty"`
}

// Token is the answer of IssueToken.
type Token struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	AccountID uint   `json:"account_id"`
	Name      string `json:"name"`
}

// Health mirrors the server's /health document.
type Health struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

type createdResponse struct {
	ID uint `json:"id"`
}

func (c *Client) CreateAnnouncement(ctx context.Context, in AnnouncementInput) (uint, error) {
	var out createdResponse
	if err := c.do(ctx, http.MethodPost, "/api/announcements", nil, in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) GetAnnouncement(ctx context.Context, id uint) (*entities.Announcement, error) {
	var out entities.Announcement
	if err := c.do(ctx, http.MethodGet, "/api/announcements/"+itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAnnouncements(ctx context.Context, filter AnnouncementFilter) ([]entities.Announcement, error) {
	query := url.Values{}
	if filter.CompanyID != 0 {
		query.Set("company_id", itoa(filter.CompanyID))
	}
	if filter.Subject != "" {
		query.Set("subject", filter.Subject)
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var out struct {
		Announcements []entities.Announcement `json:"announcements"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/announcements", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Announcements, nil
}

// SetAnnouncementStatus opens or closes an announcement.
func (c *Client) SetAnnouncementStatus(ctx context.Context, id uint, status entities.AnnouncementStatus) error {
	body := map[string]string{"status": string(status)}
	return c.do(ctx, http.MethodPatch, "/api/announcements/"+itoa(id), nil, body, nil)
}

func (c *Client) DeleteAnnouncement(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, "/api/announcements/"+itoa(id), nil, nil, nil)
}

func (c *Client) CreateCompany(ctx context.Context, in CompanyInput) (uint, error) {
	var out createdResponse
	if err := c.do(ctx, http.MethodPost, "/api/companies", nil, in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) GetCompany(ctx context.Context, id uint) (*entities.Company, error) {
	var out entities.Company
	if err := c.do(ctx, http.MethodGet, "/api/companies/"+itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCompanies(ctx context.Context) ([]entities.Company, error) {
	var out struct {
		Companies []entities.Company `json:"companies"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/companies", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Companies, nil
}

func (c *Client) CreateInfluencer(ctx context.Context, in InfluencerInput) (uint, error) {
	var out createdResponse
	if err := c.do(ctx, http.MethodPost, "/api/influencers", nil, in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) GetInfluencer(ctx context.Context, id uint) (*entities.Influencer, error) {
	var out entities.Influencer
	if err := c.do(ctx, http.MethodGet, "/api/influencers/"+itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInfluencers returns influencers, optionally narrowed by subject and
// platform.
func (c *Client) ListInfluencers(ctx context.Context, subject, platform string) ([]entities.Influencer, error) {
	query := url.Values{}
	if subject != "" {
		query.Set("subject", subject)
	}
	if platform != "" {
		query.Set("platform", platform)
	}

	var out struct {
		Influencers []entities.Influencer `json:"influencers"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/influencers", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Influencers, nil
}

// Apply submits an application. influencerID is ignored by servers that take
// the influencer from the token.
func (c *Client) Apply(ctx context.Context, announcementID, influencerID uint, message string) (*entities.Application, error) {
	body := map[string]any{"message": message}
	if influencerID != 0 {
		body["influencer_id"] = influencerID
	}

	var out entities.Application
	path := "/api/announcements/" + itoa(announcementID) + "/applications"
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListApplications returns the applications submitted to an announcement.
func (c *Client) ListApplications(ctx context.Context, announcementID uint) ([]entities.Application, error) {
	var out struct {
		Applications []entities.Application `json:"applications"`
	}
	path := "/api/announcements/" + itoa(announcementID) + "/applications"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Applications, nil
}

// SetApplicationStatus accepts or rejects an application.
func (c *Client) SetApplicationStatus(ctx context.Context, id uint, status entities.ApplicationStatus) (*entities.Application, error) {
	var out entities.Application
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPatch, "/api/applications/"+itoa(id), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IssueToken exchanges credentials for an API token.
func (c *Client) IssueToken(ctx context.Context, email, password string) (*Token, error) {
	var out Token
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/token", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns the server health document. An unhealthy server answers
// 503, which is reported as an *APIError.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
