package user

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// User is an account that can call the API. EmployeeID links staff accounts
// to the timesheet/leave records they own.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	EmployeeID   *string
	IsActive     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
