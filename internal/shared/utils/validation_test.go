package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDescription(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"valid", "a bouncing red ball", ""},
		{"empty", "", "Description is required"},
		{"blank", "   ", "Description is required"},
		{"too long", strings.Repeat("a", MaxDescriptionLength+1), "must not exceed"},
		{"null byte", "ball\x00", "invalid characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDescription(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "description", verr.Field)
		})
	}
}

func TestValidateAccountFields(t *testing.T) {
	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.EqualError(t, ValidateEmail("ada@"), "email: Invalid email format")

	assert.NoError(t, ValidatePassword("longenough"))
	assert.EqualError(t, ValidatePassword("short"), "password: Password must be at least 8 characters")
	assert.EqualError(t, ValidatePassword(""), "password: Password is required")

	assert.NoError(t, ValidateUsername("ada"))
	assert.EqualError(t, ValidateUsername(""), "username: Username is required")
}

func TestValidateSourceAndID(t *testing.T) {
	assert.NoError(t, ValidateSource("function draw() {}"))
	assert.Error(t, ValidateSource("  \n"))
	assert.Error(t, ValidateSource(strings.Repeat("x", MaxSourceSize+1)))

	assert.NoError(t, ValidateID("abc_123-XY"))
	assert.Error(t, ValidateID(""))
	assert.Error(t, ValidateID("../etc/passwd"))
}

func TestJoinErrors(t *testing.T) {
	assert.NoError(t, JoinErrors(nil, nil))

	err := JoinErrors(ValidateEmail("nope"), nil, ValidatePassword("short"))
	assert.EqualError(t, err, "email: Invalid email format, password: Password must be at least 8 characters")
}

func TestDigest(t *testing.T) {
	a := "function draw() {\r\n  background(0);  \r\n}\n"
	b := "function draw() {\n  background(0);\n}"

	assert.Equal(t, Digest(a), Digest(b))
	assert.NotEqual(t, Digest(b), Digest("function draw() {}"))
	assert.Len(t, ShortDigest(b), 12)
}
