package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"ada@x.io", true},
		{"a.b+tag@sub.example.com", true},
		{"ada", false},
		{"ada@", false},
		{"@x.io", false},
		{"Ada <ada@x.io>", false},
		{"ada@x.io extra", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, validEmail(tt.email))
		})
	}
}

func TestRegisterInput_Validate(t *testing.T) {
	tests := []struct {
		name   string
		in     RegisterInput
		fields []string
	}{
		{
			name: "valid",
			in:   RegisterInput{Name: "Ada", Email: "ada@x.io", Password: "secret1", Role: "student"},
		},
		{
			name:   "everything missing",
			in:     RegisterInput{},
			fields: []string{"email", "name", "password", "role"},
		},
		{
			name:   "name too long",
			in:     RegisterInput{Name: strings.Repeat("a", 256), Email: "ada@x.io", Password: "secret1", Role: "client"},
			fields: []string{"name"},
		},
		{
			name:   "password over bcrypt limit",
			in:     RegisterInput{Name: "Ada", Email: "ada@x.io", Password: strings.Repeat("p", 73), Role: "client"},
			fields: []string{"password"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.normalize()
			verr := tt.in.validate()
			assert.ElementsMatch(t, tt.fields, keys(verr.Fields))
		})
	}
}

func TestRegisterInput_Normalize(t *testing.T) {
	in := RegisterInput{Name: "  Ada  ", Email: " ADA@X.IO ", Role: " client "}
	in.normalize()
	assert.Equal(t, RegisterInput{Name: "Ada", Email: "ada@x.io", Role: "client"}, in)
}

func TestProfileInput_Validate(t *testing.T) {
	t.Run("password optional", func(t *testing.T) {
		in := ProfileInput{Name: "Ada", Email: "ada@x.io"}
		assert.NoError(t, in.validate().Err())
	})

	t.Run("short password", func(t *testing.T) {
		in := ProfileInput{Name: "Ada", Email: "ada@x.io", Password: "abc"}
		assert.True(t, in.validate().Has("password"))
	})

	t.Run("accepted photo types", func(t *testing.T) {
		for ct := range photoExtensions {
			in := ProfileInput{Name: "Ada", Email: "ada@x.io", Photo: &PhotoUpload{ContentType: ct, Data: []byte{1}}}
			assert.NoError(t, in.validate().Err(), ct)
		}
	})
}

func TestPhotoKey(t *testing.T) {
	a, err := photoKey("image/jpeg")
	assert.NoError(t, err)
	b, err := photoKey("image/jpeg")
	assert.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "photos/"))
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.NotEqual(t, a, b)
}

func keys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
