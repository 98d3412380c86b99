package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Occupations recognized on a profile. Students get discounted premium
// pricing.
const (
	JobPupil    = "pupil"
	JobStudent  = "student"
	JobEmployed = "employed"
)

// User is an account profile. The planner consumes it read-only.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username    string             `bson:"username" json:"username"`
	FullName    string             `bson:"fullName,omitempty" json:"fullName,omitempty"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password,omitempty" json:"-"`
	PhoneNumber string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Role        string             `bson:"role" json:"role"`
	Gender      string             `bson:"gender,omitempty" json:"gender,omitempty"`
	BirthDate   *time.Time         `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	Job         string             `bson:"job,omitempty" json:"job,omitempty"`
	HeightCm    float64            `bson:"heightCm,omitempty" json:"heightCm,omitempty"`
	WeightKg    float64            `bson:"weightKg,omitempty" json:"weightKg,omitempty"`

	PremiumMembership        bool       `bson:"premiumMembership" json:"premiumMembership"`
	PremiumMembershipExpires *time.Time `bson:"premiumMembershipExpires,omitempty" json:"premiumMembershipExpires,omitempty"`
	PremiumMembershipType    string     `bson:"premiumMembershipType,omitempty" json:"premiumMembershipType,omitempty"`

	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// IsStudent reports whether the profile occupation qualifies for the
// student premium price.
func (u *User) IsStudent() bool {
	return u.Job == JobPupil || u.Job == JobStudent
}

// AgeAt computes the full-year age at a reference time, decremented when
// the birthday has not yet been reached that year. Returns (0, false)
// when no birth date is set.
func (u *User) AgeAt(now time.Time) (int, bool) {
	if u.BirthDate == nil {
		return 0, false
	}
	dob := *u.BirthDate
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age, true
}
