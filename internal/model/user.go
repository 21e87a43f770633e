package model

import "time"

// User represents an authentication user referenced by the transaction log.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Roles.
const (
	RoleAdmin     = "Admin"
	RoleClerk     = "Clerk"
	RoleStockUser = "Stock User"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleClerk, RoleStockUser:
		return true
	}
	return false
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
// Admins can do everything a Clerk can, Clerks everything a Stock User can.
// Unknown roles on either side fail closed.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:     3,
		RoleClerk:     2,
		RoleStockUser: 1,
	}
	r, ok := levels[role]
	if !ok {
		return false
	}
	m, ok := levels[minimum]
	if !ok {
		return false
	}
	return r >= m
}
