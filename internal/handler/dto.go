package handler

import (
	"time"

	"github.com/msomdec/skillmatch-auth/internal/domain"
	"github.com/msomdec/skillmatch-auth/internal/service"
)

// UserDTO is the JSON representation of a user. The password hash is never
// serialized.
type UserDTO struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	Phone     *string `json:"phone"`
	Skills    *string `json:"skills"`
	Photo     *string `json:"photo"`
	PhotoURL  *string `json:"photo_url"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toUserDTO(u *domain.User) UserDTO {
	dto := UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Phone:     optional(u.Phone),
		Skills:    optional(u.Skills),
		Photo:     optional(u.PhotoPath),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
	if u.PhotoPath != "" {
		url := "/storage/" + u.PhotoPath
		dto.PhotoURL = &url
	}
	return dto
}

// SessionDTO describes an issued bearer token.
type SessionDTO struct {
	Type    string `json:"type"`
	Token   string `json:"token"`
	Expires string `json:"expires"`
}

func toSessionDTO(s *service.Session) SessionDTO {
	return SessionDTO{Type: s.Type, Token: s.Token, Expires: s.Expires}
}

// IdentityDTO is the body of GET /auth/me.
type IdentityDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Exp   string `json:"exp"`
}

// RegisterDTO is the body of a successful registration.
type RegisterDTO struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
