package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/msomdec/skillmatch-auth/internal/domain"
)

const userColumns = `id, name, email, password_hash, role, phone, skills, photo_path, created_at, updated_at`

// UserRepository implements domain.UserRepository using PostgreSQL.
type UserRepository struct {
	pool pool
}

// NewUserRepository creates a new PostgreSQL-backed UserRepository.
func NewUserRepository(p pool) *UserRepository {
	return &UserRepository{pool: p}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role, phone, skills, photo_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		user.Name, user.Email, user.PasswordHash, string(user.Role),
		nullable(user.Phone), nullable(user.Skills), nullable(user.PhotoPath),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET name = $1, email = $2, password_hash = $3, phone = $4, skills = $5, photo_path = $6, updated_at = now()
		 WHERE id = $7
		 RETURNING updated_at`,
		user.Name, user.Email, user.PasswordHash,
		nullable(user.Phone), nullable(user.Skills), nullable(user.PhotoPath), user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u                    domain.User
		role                 string
		phone, skills, photo *string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role,
		&phone, &skills, &photo, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.Role(role)
	u.Phone = deref(phone)
	u.Skills = deref(skills)
	u.PhotoPath = deref(photo)
	return &u, nil
}
