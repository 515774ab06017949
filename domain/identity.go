package domain

import (
	"fmt"
	"time"
)

// Role is the closed set of principal roles.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDealer Role = "dealer"
)

// ParseRole converts a stored or claimed role into a Role.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleDealer:
		return RoleDealer, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// DealerStatus is the approval state of a dealer account.
type DealerStatus string

const (
	DealerPending   DealerStatus = "pending"
	DealerApproved  DealerStatus = "approved"
	DealerSuspended DealerStatus = "suspended"
)

// ParseDealerStatus converts a stored status into a DealerStatus.
func ParseDealerStatus(value string) (DealerStatus, error) {
	switch DealerStatus(value) {
	case DealerPending:
		return DealerPending, nil
	case DealerApproved:
		return DealerApproved, nil
	case DealerSuspended:
		return DealerSuspended, nil
	default:
		return "", fmt.Errorf("unknown dealer status %q", value)
	}
}

// DealerProfile is the company record owned by a dealer identity.
type DealerProfile struct {
	ID          string       `json:"id"`
	CompanyName string       `json:"company_name"`
	ContactName string       `json:"contact_name"`
	Phone       string       `json:"phone"`
	Address     *string      `json:"address"`
	Status      DealerStatus `json:"status"`
}

// IsApproved reports whether the dealer may place orders.
func (d *DealerProfile) IsApproved() bool {
	if d == nil {
		return false
	}
	switch d.Status {
	case DealerApproved:
		return true
	case DealerPending, DealerSuspended:
		return false
	default:
		return false
	}
}

// Identity represents an authenticated principal in the platform.
type Identity struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Role      Role           `json:"role"`
	Active    bool           `json:"is_active"`
	Dealer    *DealerProfile `json:"dealer,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (i *Identity) IsActive() bool {
	return i != nil && i.Active
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// DealerID returns the id of the linked dealer profile, if any.
func (i *Identity) DealerID() (string, bool) {
	if i == nil || i.Dealer == nil || i.Dealer.ID == "" {
		return "", false
	}
	return i.Dealer.ID, true
}

// Credential pairs a username with its stored one-way password hash.
type Credential struct {
	IdentityID   string
	Username     string
	PasswordHash string
}

// AccessState holds the identity fields that gate authorization. It is always
// read from the primary store.
type AccessState struct {
	Role         Role
	Active       bool
	DealerID     string
	DealerStatus DealerStatus
}

// StateOf extracts the gating fields of an identity.
func StateOf(identity *Identity) AccessState {
	if identity == nil {
		return AccessState{}
	}
	state := AccessState{Role: identity.Role, Active: identity.Active}
	if identity.Dealer != nil {
		state.DealerID = identity.Dealer.ID
		state.DealerStatus = identity.Dealer.Status
	}
	return state
}

// Apply overwrites the gating fields of identity with s. It reports false when
// the dealer link itself differs, in which case identity is left untouched.
func (s AccessState) Apply(identity *Identity) bool {
	if identity == nil {
		return false
	}
	if current, _ := identity.DealerID(); current != s.DealerID {
		return false
	}
	identity.Role = s.Role
	identity.Active = s.Active
	if identity.Dealer != nil {
		identity.Dealer.Status = s.DealerStatus
	}
	return true
}
