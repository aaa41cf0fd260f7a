package model

// Role is a user's authorization role.
type Role string

const (
	RoleOwner       Role = "OWNER"
	RoleManager     Role = "MANAGER"
	RoleCashier     Role = "CASHIER"
	RoleMaintenance Role = "MAINTENANCE"
	RoleUser        Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleCashier, RoleMaintenance, RoleUser:
		return true
	}
	return false
}

// User is an account of the booking system.
type User struct {
	ID           int64  `gorm:"primaryKey"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FullName     string `gorm:"size:255;not null"`
	Role         Role   `gorm:"size:16;not null;default:USER"`
}
