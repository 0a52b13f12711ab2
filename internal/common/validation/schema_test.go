package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func userSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"email", "role"},
		Properties: map[string]Property{
			"email": {Type: "string", MinLength: intPtr(5)},
			"role":  {Type: "string", Enum: []string{"student", "staff", "admin"}},
			"name":  {Type: "string"},
		},
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
	}{
		{
			name:      "valid input",
			input:     map[string]interface{}{"email": "a@b.com", "role": "staff", "name": "Ana"},
			wantValid: true,
		},
		{
			name:      "missing required field",
			input:     map[string]interface{}{"email": "a@b.com"},
			wantValid: false,
			wantField: "(root)",
		},
		{
			name:      "enum violation",
			input:     map[string]interface{}{"email": "a@b.com", "role": "superuser"},
			wantValid: false,
			wantField: "role",
		},
		{
			name:      "wrong type",
			input:     map[string]interface{}{"email": 42, "role": "admin"},
			wantValid: false,
			wantField: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, userSchema())
			assert.Equal(t, tt.wantValid, result.Valid)
			if !tt.wantValid {
				assert.NotEmpty(t, result.GetErrorMessages())
				assert.True(t, result.HasErrors(tt.wantField), "expected error on field %s, got %v", tt.wantField, result.Errors)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail(""))
}
