package domain

import "time"

// Member is a roster entry within a room: the identity obligations and
// settlements are computed against. A member may be linked to a registered
// user account, or exist as a plain name added by an admin.
type Member struct {
	MemberID string `json:"memberID"` // Primary Key (e.g., UUID)
	RoomID   string `json:"roomID"`
	Name     string `json:"name"`
	// UserID links this roster entry to an account; nil for unlinked members.
	UserID *string `json:"userID,omitempty"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"` // Used for soft delete
}
