package models

import "time"

// User roles
const (
	RoleRider = "rider"
	RoleAdmin = "admin"
)

type User struct {
	ID        int       `json:"id" example:"1"`                   // User ID
	Username  string    `json:"username" example:"jdoe"`          // Display name
	Email     string    `json:"email" example:"user@example.com"` // User email
	Role      string    `json:"role" example:"rider"`             // rider or admin
	CreatedAt time.Time `json:"created_at"`
}
