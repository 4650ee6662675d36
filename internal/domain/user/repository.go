package user

import "context"

// Repository is the data access contract for users. Implementations forward
// to the database and keep no state of their own.
type Repository interface {
	AddUser(ctx context.Context, in NewUser) (*User, error)              // Insert one row
	AddUsers(ctx context.Context, in []NewUser) ([]User, error)          // Insert a batch of rows
	GetUsers(ctx context.Context, q Query) ([]User, error)               // List matching rows
	CountUsers(ctx context.Context, q Query) (int64, error)              // Count matching rows
	GetUser(ctx context.Context, id int64) (*User, error)                // Find one row by id
	UpdateUser(ctx context.Context, id int64, patch Patch) (*User, error) // Partially update one row
}
