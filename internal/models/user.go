package models

import "time"

// Role is the capability a user was registered with.
type Role string

const (
	RoleVendor   Role = "VENDOR"
	RoleCustomer Role = "CUSTOMER"
)

// User represents a registered vendor or customer.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null" bson:"name"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" bson:"email"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null" bson:"password"` // bcrypt hash
	Role      Role      `json:"role" gorm:"type:varchar(16);not null;default:CUSTOMER" bson:"role"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// VendorSummary is the part of a vendor that is attached to listings for display.
type VendorSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary returns the display fields of the user.
func (u *User) Summary() VendorSummary {
	return VendorSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
