package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"land-registry/internal/auth"
	"land-registry/internal/land"
	"land-registry/internal/notify"
)

// APIError carries the server's error envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Client speaks the land-registry REST API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthPayload is the login/register response body.
type AuthPayload struct {
	Token    string     `json:"token"`
	User     *auth.User `json:"user"`
	Redirect string     `json:"redirect,omitempty"`
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	var out AuthPayload
	err := c.postJSON(ctx, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminLogin(ctx context.Context, email, password, adminKey string) (*AuthPayload, error) {
	var out AuthPayload
	err := c.postJSON(ctx, "/api/auth/admin/login", "", map[string]string{
		"email": email, "password": password, "adminKey": adminKey,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthPayload, error) {
	var out AuthPayload
	if err := c.postJSON(ctx, "/api/auth/register", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me exchanges a user-class token for its verified identity.
func (c *Client) Me(ctx context.Context, token string) (*auth.User, error) {
	var out auth.User
	if err := c.getJSON(ctx, "/api/auth/me", token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminMe is the identity check for the admin credential class.
func (c *Client) AdminMe(ctx context.Context, token string) (*auth.User, error) {
	var out auth.User
	if err := c.getJSON(ctx, "/api/admin/me", token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Document is one buffered file attachment.
type Document struct {
	Name string
	Data []byte
}

type ProfileInput struct {
	Username     string
	Email        string
	PhoneNumber  string
	GithubURL    string
	FacebookURL  string
	InstagramURL string
	Description  string
	Profession   string
	ProfileImage *Document
}

func (c *Client) UpdateDetails(ctx context.Context, token, userID string, in ProfileInput) (*auth.User, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"username":     in.Username,
		"email":        in.Email,
		"phoneNumber":  in.PhoneNumber,
		"githubUrl":    in.GithubURL,
		"facebookUrl":  in.FacebookURL,
		"instagramUrl": in.InstagramURL,
		"description":  in.Description,
		"profession":   in.Profession,
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if in.ProfileImage != nil {
		fw, err := mw.CreateFormFile("profileImage", in.ProfileImage.Name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(in.ProfileImage.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out struct {
		Success bool       `json:"success"`
		User    *auth.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPut, "/api/auth/uploadDetails/"+userID, token, &body, mw.FormDataContentType(), &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// LandInput is the client-side registration form.
type LandInput struct {
	Title            string
	Type             string
	Area             float64
	Location         string
	Description      string
	Price            float64
	ClaimType        string
	ExistingRecordID string
	Documents        []Document
}

// missingFields reports which required fields are empty, in form order.
func (in LandInput) missingFields() []string {
	var missing []string
	add := func(name string, empty bool) {
		if empty {
			missing = append(missing, name)
		}
	}
	add("landTitle", strings.TrimSpace(in.Title) == "")
	add("landType", strings.TrimSpace(in.Type) == "")
	add("area", in.Area == 0)
	add("location", strings.TrimSpace(in.Location) == "")
	add("price", false) // zero is a legal price
	add("claimType", strings.TrimSpace(in.ClaimType) == "")
	add("existingRecordId", strings.TrimSpace(in.ExistingRecordID) == "")
	add("documents", len(in.Documents) == 0)
	return missing
}

// RegisterLand validates the form locally, encodes it as multipart and
// submits it with the bearer token.
func (c *Client) RegisterLand(ctx context.Context, token string, in LandInput) (*land.Record, error) {
	if missing := in.missingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if len(in.Documents) > 5 {
		return nil, fmt.Errorf("at most 5 documents allowed, got %d", len(in.Documents))
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("landTitle", in.Title)
	_ = mw.WriteField("landType", in.Type)
	_ = mw.WriteField("area", strconv.FormatFloat(in.Area, 'f', -1, 64))
	_ = mw.WriteField("location", in.Location)
	_ = mw.WriteField("description", in.Description)
	_ = mw.WriteField("price", strconv.FormatFloat(in.Price, 'f', -1, 64))
	_ = mw.WriteField("claimType", in.ClaimType)
	_ = mw.WriteField("existingRecordId", in.ExistingRecordID)
	for _, doc := range in.Documents {
		fw, err := mw.CreateFormFile("documents", doc.Name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(doc.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out struct {
		Success bool         `json:"success"`
		Message string       `json:"message"`
		Data    *land.Record `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/api/land/register", token, &body, mw.FormDataContentType(), &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Lands lists the caller's records, optionally filtered by type/status.
func (c *Client) Lands(ctx context.Context, token, landType, status string) ([]land.Record, error) {
	q := url.Values{}
	if landType != "" {
		q.Set("landType", landType)
	}
	if status != "" {
		q.Set("status", status)
	}
	path := "/api/land/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out struct {
		Success bool          `json:"success"`
		Count   int           `json:"count"`
		Data    []land.Record `json:"data"`
	}
	if err := c.getJSON(ctx, path, token, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) Land(ctx context.Context, token, id string) (*land.Record, error) {
	var out struct {
		Success bool         `json:"success"`
		Data    *land.Record `json:"data"`
	}
	if err := c.getJSON(ctx, "/api/land/"+id, token, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) PostNotification(ctx context.Context, token string, ev notify.Event) error {
	return c.postJSON(ctx, "/api/notifications", token, ev, nil)
}

func (c *Client) postJSON(ctx context.Context, path, token string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, token, bytes.NewReader(b), "application/json", out)
}

func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	return c.do(ctx, http.MethodGet, path, token, nil, "", out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Message string `json:"message"`
		}
		msg := resp.Status
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Message != "" {
			msg = envelope.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
