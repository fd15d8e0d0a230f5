// Package land holds the land-record collection: the registration model,
// its validation rules and the owner-scoped stores.
package land

import (
	"errors"
	"strings"
	"time"
)

type Type string

const (
	TypeAgricultural Type = "Agricultural"
	TypeResidential  Type = "Residential"
	TypeCommercial   Type = "Commercial"
	TypeIndustrial   Type = "Industrial"
	TypeMixedUse     Type = "Mixed Use"
)

type ClaimType string

const (
	ClaimOwnership ClaimType = "ownership"
	ClaimTransfer  ClaimType = "transfer"
	ClaimUpdate    ClaimType = "update"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// ParseType canonicalizes a submitted land type. Submissions historically
// used the lowercase set while records store the display form.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agricultural":
		return TypeAgricultural, true
	case "residential":
		return TypeResidential, true
	case "commercial":
		return TypeCommercial, true
	case "industrial":
		return TypeIndustrial, true
	case "mixed use", "mixed-use":
		return TypeMixedUse, true
	default:
		return "", false
	}
}

func ParseClaimType(s string) (ClaimType, bool) {
	switch ClaimType(strings.ToLower(strings.TrimSpace(s))) {
	case ClaimOwnership, ClaimTransfer, ClaimUpdate:
		return ClaimType(strings.ToLower(strings.TrimSpace(s))), true
	default:
		return "", false
	}
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusVerified, StatusRejected:
		return Status(s), true
	default:
		return "", false
	}
}

var ErrRecordNotFound = errors.New("land record not found")

// Record is a persisted property registration. Owner and Status are set
// server-side only; client payloads never reach them.
type Record struct {
	ID               string    `json:"id" bson:"_id"`
	Title            string    `json:"landTitle" bson:"land_title"`
	Type             Type      `json:"landType" bson:"land_type"`
	Area             float64   `json:"area" bson:"area"`
	Location         string    `json:"location" bson:"location"`
	Description      string    `json:"description,omitempty" bson:"description,omitempty"`
	Price            float64   `json:"price" bson:"price"`
	ClaimType        ClaimType `json:"claimType" bson:"claim_type"`
	ExistingRecordID string    `json:"existingRecordId" bson:"existing_record_id"`
	Documents        []string  `json:"documents" bson:"documents"`
	OwnerID          string    `json:"owner" bson:"owner_id"`
	Status           Status    `json:"status" bson:"status"`
	CreatedAt        time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updated_at"`
}

// Query narrows an owner-scoped listing.
type Query struct {
	Type   Type
	Status Status
}

type Store interface {
	Insert(rec *Record) error
	FindByOwner(ownerID string, q Query) ([]Record, error)
	// FindByIDAndOwner returns ErrRecordNotFound for records owned by
	// anyone else; existence is never leaked across owners.
	FindByIDAndOwner(id, ownerID string) (*Record, error)
}
