package domain

import "time"

// AuthProvider identifies how a user account authenticates.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "LOCAL"
	ProviderGoogle AuthProvider = "GOOGLE"
)

// User represents an authenticated account in the domain.
type User struct {
	UserID       string       `json:"userID"` // Primary Key (e.g., UUID)
	Username     string       `json:"username"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Empty for OAuth-only accounts
	AuthProvider AuthProvider `json:"authProvider"`
	// ProviderUserID is the provider's unique subject for OAuth accounts (Google 'sub' claim).
	ProviderUserID         string     `json:"-"`
	EmailVerified          bool       `json:"emailVerified"`
	RefreshTokenHash       string     `json:"-"`
	RefreshTokenExpiryTime *time.Time `json:"-"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"` // Used for soft delete
}

// GoogleUserInfo holds the fields returned by Google's userinfo endpoint.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// GetUserID returns the user's ID. Satisfies the dto user view.
func (u *User) GetUserID() string { return u.UserID }

// GetUsername returns the user's login name.
func (u *User) GetUsername() string { return u.Username }

// GetName returns the user's display name.
func (u *User) GetName() string { return u.Name }
