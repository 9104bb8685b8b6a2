package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/msomdec/skillmatch-auth/internal/domain"
)

// ExpiryLayout is the format of expiry timestamps returned to clients.
const ExpiryLayout = "2006-01-02 15:04:05"

// TokenTypeBearer is the token type reported alongside issued tokens.
const TokenTypeBearer = "Bearer"

// Session describes an issued bearer token.
type Session struct {
	Type      string
	Token     string
	ExpiresAt time.Time
	Expires   string // ExpiresAt formatted with ExpiryLayout
}

// Identity is the result of introspecting a token.
type Identity struct {
	Name  string
	Email string
	Exp   string
}

// Principal is an authenticated caller: the verified token and its owner.
type Principal struct {
	User   *domain.User
	Claims *Claims
	Token  string
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithLocation sets the time zone used to format expiry timestamps.
func WithLocation(loc *time.Location) AuthOption {
	return func(s *AuthService) { s.loc = loc }
}

// AuthService owns the session token lifecycle: registration, login,
// introspection, refresh, logout and profile updates.
type AuthService struct {
	users    domain.UserRepository
	denylist domain.TokenDenylist
	files    domain.FileStore
	tokens   *TokenIssuer
	hasher   PasswordHasher
	loc      *time.Location
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, denylist domain.TokenDenylist, files domain.FileStore, tokens *TokenIssuer, hasher PasswordHasher, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:    users,
		denylist: denylist,
		files:    files,
		tokens:   tokens,
		hasher:   hasher,
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account and returns it with a fresh session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, *Session, error) {
	in.normalize()
	verr := in.validate()

	if !verr.Has("email") {
		taken, err := s.emailTaken(ctx, in.Email, 0)
		if err != nil {
			return nil, nil, err
		}
		if taken {
			verr.Add("email", "The email has already been taken.")
		}
	}
	if err := verr.Err(); err != nil {
		return nil, nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.Role(in.Role),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, nil, emailTaken()
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.issue(user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, session, nil
}

// Authenticate verifies credentials and returns a new session.
func (s *AuthService) Authenticate(ctx context.Context, in LoginInput) (*Session, error) {
	in.normalize()
	if err := in.validate().Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("account %q: %w", in.Email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user.ID)
}

// Authorize validates a bearer token and loads the user it belongs to.
// Any token problem is reported as domain.ErrUnauthenticated; store failures
// are returned as-is.
func (s *AuthService) Authorize(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token not provided", domain.ErrUnauthenticated)
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: token has no id", domain.ErrUnauthenticated)
	}

	revoked, err := s.denylist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token has been invalidated", domain.ErrUnauthenticated)
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject", domain.ErrUnauthenticated)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &Principal{User: user, Claims: claims, Token: token}, nil
}

// Introspect returns the identity behind a valid token.
func (s *AuthService) Introspect(ctx context.Context, token string) (*Identity, error) {
	p, err := s.Authorize(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Identity{
		Name:  p.User.Name,
		Email: p.User.Email,
		Exp:   s.format(p.Claims.ExpiresAt.Time),
	}, nil
}

// Refresh exchanges a valid token for a new one and invalidates the old one.
// A token can be refreshed once: when concurrent refreshes race, only the one
// whose denylist insert lands first gets a new token.
func (s *AuthService) Refresh(ctx context.Context, token string) (*Session, error) {
	p, err := s.Authorize(ctx, token)
	if err != nil {
		return nil, err
	}

	added, err := s.denylist.Add(ctx, p.Claims.ID, p.Claims.ExpiresAt.Time)
	if err != nil {
		return nil, fmt.Errorf("invalidate previous token: %w", err)
	}
	if !added {
		return nil, fmt.Errorf("%w: token has been invalidated", domain.ErrUnauthenticated)
	}

	return s.issue(p.User.ID)
}

// Invalidate revokes a token until its natural expiry. Missing or forged
// tokens are ignored; expired tokens are still recorded.
func (s *AuthService) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.tokens.VerifySignature(token)
	if err != nil {
		slog.DebugContext(ctx, "ignoring unverifiable token on logout", "error", err)
		return nil
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}

	if _, err := s.denylist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("add to denylist: %w", err)
	}
	return nil
}

// UpdateProfile applies a profile update on behalf of the given user.
func (s *AuthService) UpdateProfile(ctx context.Context, current *domain.User, in ProfileInput) (*domain.User, error) {
	if current == nil {
		return nil, domain.ErrUnauthenticated
	}

	in.normalize()
	verr := in.validate()

	if !verr.Has("email") {
		taken, err := s.emailTaken(ctx, in.Email, current.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("email", "The email has already been taken.")
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = in.Name
	updated.Email = in.Email
	if in.Phone != nil {
		updated.Phone = *in.Phone
	}
	if in.Skills != nil {
		updated.Skills = *in.Skills
	}

	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		updated.PasswordHash = hash
	}

	var newPhoto string
	if in.Photo != nil {
		key, err := photoKey(in.Photo.ContentType)
		if err != nil {
			return nil, fmt.Errorf("%w: generate photo key: %v", domain.ErrStorage, err)
		}
		if err := s.files.Save(ctx, key, in.Photo.ContentType, in.Photo.Data); err != nil {
			return nil, fmt.Errorf("%w: save photo: %v", domain.ErrStorage, err)
		}
		newPhoto = key
		updated.PhotoPath = key
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		if newPhoto != "" {
			// Best-effort cleanup of the stored file.
			if delErr := s.files.Delete(ctx, newPhoto); delErr != nil {
				slog.WarnContext(ctx, "delete orphaned photo", "key", newPhoto, "error", delErr)
			}
		}
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if newPhoto != "" && current.PhotoPath != "" && current.PhotoPath != newPhoto {
		if err := s.files.Delete(ctx, current.PhotoPath); err != nil {
			slog.WarnContext(ctx, "delete previous photo", "key", current.PhotoPath, "error", err)
		}
	}

	return &updated, nil
}

// Photo returns the stored bytes of a profile photo.
func (s *AuthService) Photo(ctx context.Context, key string) ([]byte, string, error) {
	return s.files.Get(ctx, key)
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// TokenTTL returns the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *AuthService) issue(userID int64) (*Session, error) {
	tok, err := s.tokens.Sign(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenIssuance, err)
	}
	return &Session{
		Type:      TokenTypeBearer,
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt,
		Expires:   s.format(tok.ExpiresAt),
	}, nil
}

// emailTaken reports whether email belongs to a user other than exceptID.
func (s *AuthService) emailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get user by email: %w", err)
	}
	return existing.ID != exceptID, nil
}

func (s *AuthService) format(t time.Time) string {
	return t.In(s.loc).Format(ExpiryLayout)
}

func photoKey(contentType string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "photos/" + hex.EncodeToString(b) + photoExtensions[contentType], nil
}
