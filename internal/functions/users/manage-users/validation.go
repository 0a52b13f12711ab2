// internal/functions/users/manage-users/validation.go
package manageusers

import "byteplus-functions/internal/common/validation"

func GetCreateSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:                 "object",
		Required:             []string{"email", "password", "name", "role"},
		AdditionalProperties: true,
		Properties: map[string]validation.Property{
			"email": {
				Type:        "string",
				Description: "Account email address",
				MinLength:   intPtr(5),
				MaxLength:   intPtr(255),
			},
			"password": {
				Type:        "string",
				Description: "Initial account password",
				MinLength:   intPtr(6),
				MaxLength:   intPtr(128),
			},
			"name": {
				Type:        "string",
				Description: "Display name",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(255),
			},
			"role": {
				Type:        "string",
				Description: "Account role",
				Enum:        []string{RoleStudent, RoleStaff, RoleAdmin},
			},
		},
	}
}

func intPtr(v int) *int { return &v }
