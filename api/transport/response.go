package transport

import (
	"time"

	"github.com/fastygo/dealerhub/domain"
)

// ErrorBody is the single error shape returned by every endpoint.
type ErrorBody struct {
	Detail string `json:"detail"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type DealerInfo struct {
	ID          string  `json:"id"`
	CompanyName string  `json:"company_name"`
	ContactName string  `json:"contact_name"`
	Phone       string  `json:"phone"`
	Address     *string `json:"address"`
	Status      string  `json:"status"`
}

type UserInfo struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     string      `json:"role"`
	IsActive bool        `json:"is_active"`
	Dealer   *DealerInfo `json:"dealer,omitempty"`
}

type LoginResponse struct {
	TokenResponse
	User UserInfo `json:"user"`
}

type CurrentUserResponse struct {
	UserInfo
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Services  map[string]bool `json:"services"`
}

func NewTokenResponse(pair domain.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	}
}

func NewUserInfo(identity *domain.Identity) UserInfo {
	info := UserInfo{
		ID:       identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
		Role:     string(identity.Role),
		IsActive: identity.Active,
	}
	if d := identity.Dealer; d != nil {
		info.Dealer = &DealerInfo{
			ID:          d.ID,
			CompanyName: d.CompanyName,
			ContactName: d.ContactName,
			Phone:       d.Phone,
			Address:     d.Address,
			Status:      string(d.Status),
		}
	}
	return info
}

func NewCurrentUserResponse(identity *domain.Identity) CurrentUserResponse {
	return CurrentUserResponse{
		UserInfo:  NewUserInfo(identity),
		CreatedAt: identity.CreatedAt,
		UpdatedAt: identity.UpdatedAt,
	}
}
