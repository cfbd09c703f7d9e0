package models

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the user's email address (unique).
	// Used for login and group invite notifications.
	Email string `json:"email"`

	// ImageURL is an optional profile picture URL.
	ImageURL string `json:"imageUrl,omitempty"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized to API responses.
	PasswordHash string `json:"-"`

	// CreatedAt is the Unix millisecond timestamp when the account was created.
	CreatedAt int64 `json:"createdAt"`
}
