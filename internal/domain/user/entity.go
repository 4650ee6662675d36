package user

// User represents a user entity in the system.
type User struct {
	ID    int64  // ID is assigned by the database and never changes
	Name  string // Name is the display name of the user
	Email string // Email is the email address of the user
}

// NewUser holds the fields of a user that is about to be created.
type NewUser struct {
	Name  string
	Email string
}

// Patch is a partial update. Nil fields keep their stored value.
type Patch struct {
	Name  *string
	Email *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil
}
