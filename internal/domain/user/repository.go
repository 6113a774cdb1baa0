package user

import "context"

// Repository - interface for users table
type Repository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// ListActiveEmployeeIDs returns the employee ids of all active staff
	// accounts. The balance allocation sweep iterates over it.
	ListActiveEmployeeIDs(ctx context.Context) ([]string, error)
}
