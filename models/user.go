package models

import "time"

// Roles a user can hold. Moderators may delete threads and posts owned by
// plain users; admins may do anything.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// User represents a forum account. Passwords are stored as bcrypt hashes only.
// Rows are never removed: Deleted marks a scrubbed, permanently retired
// account whose username and id stay reserved.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	Username        string    `gorm:"size:20;not null;uniqueIndex" json:"username"`
	PasswordHash    string    `gorm:"size:255;not null" json:"-"`
	Role            string    `gorm:"size:16;not null;default:'user'" json:"role"`
	Bio             string    `gorm:"size:60" json:"bio"`
	PictureFilename string    `gorm:"size:255" json:"-"`
	JoinedAt        time.Time `json:"joined_date"`
	Deleted         bool      `gorm:"not null;default:false" json:"deleted"`
}

// MarkDeleted demotes the user, clears the profile picture, and flags the
// account as deleted. Returns the old picture filename so the caller can
// remove the stored file. Calling it again is a no-op.
func (u *User) MarkDeleted() (picture string) {
	if u.Deleted {
		return ""
	}
	u.Deleted = true
	u.Role = RoleUser

	picture = u.PictureFilename
	u.PictureFilename = ""
	return picture
}
