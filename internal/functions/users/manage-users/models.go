// internal/functions/users/manage-users/models.go
package manageusers

type CreateInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type CreateOutput struct {
	UID              string `json:"uid"`
	WelcomeEmailSent bool   `json:"welcomeEmailSent,omitempty"`
}

type DeleteOutput struct {
	UID               string `json:"uid"`
	IdentityDeleted   bool   `json:"identityDeleted"`
	SubrecordsDeleted int    `json:"subrecordsDeleted"`
}

// Roles
const (
	RoleStudent = "student"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

// Statuses
const (
	StatusActive = "active"
)

// Subcollections destroyed alongside a user record.
var userSubcollections = []string{"cartItems", "favorites", "notifications", "orders"}
