package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PassHash     string    `json:"-"`
	Role         Role      `json:"role"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	GithubURL    string    `json:"githubUrl,omitempty"`
	FacebookURL  string    `json:"facebookUrl,omitempty"`
	InstagramURL string    `json:"instagramUrl,omitempty"`
	Description  string    `json:"description,omitempty"`
	Profession   string    `json:"profession,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProfileUpdate is the field set accepted by the uploadDetails endpoint.
// ProfileImage is a stored file path and is only applied when non-empty.
type ProfileUpdate struct {
	Username     string
	Email        string
	PhoneNumber  string
	GithubURL    string
	FacebookURL  string
	InstagramURL string
	Description  string
	Profession   string
	ProfileImage string
}

type UserStore interface {
	Add(u *User) error
	FindByID(id string) (*User, error)
	FindByEmail(email string) (*User, error)
	UpdateDetails(id string, upd ProfileUpdate) (*User, error)
}

type MemoryUserStore struct {
	mu      sync.Mutex
	byID    map[string]*User
	byEmail map[string]*User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    map[string]*User{},
		byEmail: map[string]*User{},
	}
}

func (s *MemoryUserStore) Add(u *User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" {
		return errors.New("email required")
	}
	if _, exists := s.byEmail[email]; exists {
		return errors.New("email already exists")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	clone := *u
	clone.Email = email
	s.byID[clone.ID] = &clone
	s.byEmail[email] = &clone
	return nil
}

func (s *MemoryUserStore) FindByID(id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUserStore) FindByEmail(email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUserStore) UpdateDetails(id string, upd ProfileUpdate) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	oldEmail := u.Email
	applyProfileUpdate(u, upd)
	if u.Email != oldEmail {
		delete(s.byEmail, oldEmail)
		s.byEmail[u.Email] = u
	}
	clone := *u
	return &clone, nil
}

func applyProfileUpdate(u *User, upd ProfileUpdate) {
	if upd.Username != "" {
		u.Username = upd.Username
	}
	if email := strings.ToLower(strings.TrimSpace(upd.Email)); email != "" {
		u.Email = email
	}
	u.PhoneNumber = upd.PhoneNumber
	u.GithubURL = upd.GithubURL
	u.FacebookURL = upd.FacebookURL
	u.InstagramURL = upd.InstagramURL
	u.Description = upd.Description
	u.Profession = upd.Profession
	if upd.ProfileImage != "" {
		u.ProfileImage = upd.ProfileImage
	}
}
