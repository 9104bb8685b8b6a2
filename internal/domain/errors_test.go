package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/msomdec/skillmatch-auth/internal/domain"
)

func TestValidationError(t *testing.T) {
	verr := &domain.ValidationError{}
	assert.NoError(t, verr.Err())
	assert.False(t, verr.Has("email"))

	verr.Add("password", "too short")
	verr.Add("email", "taken")
	verr.Add("email", "invalid")

	err := verr.Err()
	assert.Error(t, err)
	assert.True(t, verr.Has("email"))
	assert.Equal(t, []string{"taken", "invalid"}, verr.Fields["email"])
	assert.Equal(t, "invalid input: taken invalid too short", err.Error())
}

func TestValidationError_MatchesErrInvalidInput(t *testing.T) {
	verr := &domain.ValidationError{}
	verr.Add("name", "required")

	wrapped := fmt.Errorf("register: %w", verr.Err())
	assert.ErrorIs(t, wrapped, domain.ErrInvalidInput)
	assert.NotErrorIs(t, wrapped, domain.ErrNotFound)

	var got *domain.ValidationError
	assert.True(t, errors.As(wrapped, &got))
	assert.Equal(t, verr, got)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, domain.RoleStudent.Valid())
	assert.True(t, domain.RoleClient.Valid())
	assert.False(t, domain.Role("admin").Valid())
	assert.False(t, domain.Role("").Valid())
}
