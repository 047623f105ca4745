package models

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleUser      UserRole = "USER"
	RoleOwner     UserRole = "OWNER"
	RoleVolunteer UserRole = "VOLUNTEER"
	RoleAdmin     UserRole = "ADMIN"
)

// Valid reports whether r is one of the four known roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleOwner, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// User is loaded from fixtures and never edited afterwards
type User struct {
	ID     string   `json:"id" gorm:"primaryKey"`
	Name   string   `json:"name" gorm:"not null"`
	Email  string   `json:"email" gorm:"uniqueIndex;not null"`
	Role   UserRole `json:"role" gorm:"not null;default:'USER'"`
	Avatar string   `json:"avatar"`
}
