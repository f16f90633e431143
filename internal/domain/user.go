package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleDoctor    Role = "Doctor"
	RolePatient   Role = "Patient"
	RoleAmenities Role = "Amenities"
	RoleAdmin     Role = "Admin"
)

// DefaultRole is assigned when registration omits the role field.
const DefaultRole = RolePatient

func (r Role) Valid() bool {
	switch r {
	case RoleDoctor, RolePatient, RoleAmenities, RoleAdmin:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// User is the account record owned by the credential store. The password
// hash and the transient reset fields never serialize.
type User struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	FirstName     string     `db:"first_name" json:"firstName"`
	LastName      string     `db:"last_name" json:"lastName"`
	Email         string     `db:"email" json:"email"`
	Phone         string     `db:"phone" json:"phone"`
	PasswordHash  []byte     `db:"password_hash" json:"-"`
	DateOfBirth   time.Time  `db:"date_of_birth" json:"dateOfBirth"`
	Gender        Gender     `db:"gender" json:"gender"`
	Country       *string    `db:"country" json:"country,omitempty"`
	Address       *string    `db:"address" json:"address,omitempty"`
	Role          Role       `db:"role" json:"role"`
	ResetCodeHash []byte     `db:"reset_code_hash" json:"-"`
	ResetExpires  *time.Time `db:"reset_expires_at" json:"-"`
	ResetVerified bool       `db:"reset_verified" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// HasActiveReset reports whether an unexpired reset code is pending on the
// account. ResetVerified is only meaningful while this is true.
func (u *User) HasActiveReset(now time.Time) bool {
	return len(u.ResetCodeHash) > 0 && u.ResetExpires != nil && u.ResetExpires.After(now)
}

// Profile is the outward-facing view of an account: identity and profile
// attributes only, no credentials and no reset state.
type Profile struct {
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Gender      Gender    `json:"gender"`
	Country     *string   `json:"country,omitempty"`
	Address     *string   `json:"address,omitempty"`
	Role        Role      `json:"role"`
}

// ProfileOf redacts a user record down to its public profile fields.
func ProfileOf(u *User) Profile {
	return Profile{
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Phone:       u.Phone,
		DateOfBirth: u.DateOfBirth,
		Gender:      u.Gender,
		Country:     u.Country,
		Address:     u.Address,
		Role:        u.Role,
	}
}
