package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid", email: "ada@example.com"},
		{name: "empty", email: "", wantErr: true},
		{name: "missing at", email: "ada.example.com", wantErr: true},
		{name: "display name form", email: "Ada <ada@example.com>", wantErr: true},
		{name: "too long", email: strings.Repeat("a", 250) + "@x.io", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("longenough"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 73)))
}

func TestValidateGoalTitle(t *testing.T) {
	assert.Error(t, ValidateGoalTitle("   "))
	assert.NoError(t, ValidateGoalTitle("Run every day"))
	assert.Error(t, ValidateGoalTitle(strings.Repeat("t", 256)))
}

func TestValidateUserName(t *testing.T) {
	assert.NoError(t, ValidateUserName(""))
	assert.Error(t, ValidateUserName(strings.Repeat("n", 101)))
}
