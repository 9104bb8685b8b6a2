package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/msomdec/skillmatch-auth/internal/domain"
)

const (
	maxNameLength     = 255
	maxEmailLength    = 255
	minPasswordLength = 6
	// bcrypt ignores input beyond 72 bytes and x/crypto rejects it outright.
	maxPasswordBytes = 72
	MaxPhotoSize     = 2 * 1024 * 1024 // 2MB
)

// Accepted photo content types, keyed by the file extension used for storage.
var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginInput is the payload of a login request.
type LoginInput struct {
	Email    string
	Password string
}

// PhotoUpload is a profile photo received from the client. ContentType
// should be sniffed from the bytes rather than taken from the request.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProfileInput is the payload of a profile update.
// Nil Phone or Skills leaves the stored value unchanged; a pointer to ""
// clears it. An empty Password keeps the current password.
type ProfileInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
	Skills   *string
	Photo    *PhotoUpload
}

func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Role = strings.TrimSpace(in.Role)
}

func (in *RegisterInput) validate() *domain.ValidationError {
	verr := &domain.ValidationError{}
	validateName(verr, in.Name)
	validateEmail(verr, in.Email)
	if in.Password == "" {
		verr.Add("password", "The password field is required.")
	} else {
		validatePassword(verr, in.Password)
	}
	if in.Role == "" {
		verr.Add("role", "The role field is required.")
	} else if !domain.Role(in.Role).Valid() {
		verr.Add("role", "The selected role is invalid.")
	}
	return verr
}

func (in *LoginInput) normalize() {
	in.Email = normalizeEmail(in.Email)
}

func (in *LoginInput) validate() *domain.ValidationError {
	verr := &domain.ValidationError{}
	if in.Email == "" {
		verr.Add("email", "Email is required")
	} else if !validEmail(in.Email) {
		verr.Add("email", "Email must be a valid email address")
	}
	if in.Password == "" {
		verr.Add("password", "Password is required")
	}
	return verr
}

func (in *ProfileInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
}

func (in *ProfileInput) validate() *domain.ValidationError {
	verr := &domain.ValidationError{}
	validateName(verr, in.Name)
	validateEmail(verr, in.Email)
	if in.Password != "" {
		validatePassword(verr, in.Password)
	}
	if in.Photo != nil {
		if _, ok := photoExtensions[in.Photo.ContentType]; !ok {
			verr.Add("photo", "The photo must be an image.")
		}
		if len(in.Photo.Data) > MaxPhotoSize {
			verr.Add("photo", fmt.Sprintf("The photo may not be greater than %d kilobytes.", MaxPhotoSize/1024))
		}
	}
	return verr
}

func validateName(verr *domain.ValidationError, name string) {
	if name == "" {
		verr.Add("name", "The name field is required.")
		return
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		verr.Add("name", fmt.Sprintf("The name may not be greater than %d characters.", maxNameLength))
	}
}

func validateEmail(verr *domain.ValidationError, email string) {
	switch {
	case email == "":
		verr.Add("email", "The email field is required.")
	case utf8.RuneCountInString(email) > maxEmailLength:
		verr.Add("email", fmt.Sprintf("The email may not be greater than %d characters.", maxEmailLength))
	case !validEmail(email):
		verr.Add("email", "The email must be a valid email address.")
	}
}

func validatePassword(verr *domain.ValidationError, password string) {
	if utf8.RuneCountInString(password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("The password must be at least %d characters.", minPasswordLength))
	}
	if len(password) > maxPasswordBytes {
		verr.Add("password", fmt.Sprintf("The password may not be greater than %d bytes.", maxPasswordBytes))
	}
}

// validEmail accepts a bare RFC 5322 address with a domain part.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailTaken() *domain.ValidationError {
	verr := &domain.ValidationError{}
	verr.Add("email", "The email has already been taken.")
	return verr
}
