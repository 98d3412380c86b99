package payment

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment statuses.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Premium packages.
const (
	PackageMonthly = "monthly"
	PackageTrial   = "trial"
)

// Package durations and prices. Monthly carries 3 bonus days.
const (
	monthlyDays = 33
	trialDays   = 3

	monthlyPriceVND        = 29000
	monthlyStudentPriceVND = 19000
)

// pendingOrderTTL is how long a checkout link stays payable.
const pendingOrderTTL = 15 * time.Minute

// Payment is one premium purchase attempt.
type Payment struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	// Reference is the internal correlation id carried through logs and
	// support requests, distinct from the gateway's numeric order code.
	Reference   string             `bson:"reference" json:"reference"`
	OrderCode   int64              `bson:"orderCode" json:"orderCode"`
	UserID      primitive.ObjectID `bson:"user" json:"userId"`
	Amount      int                `bson:"amount" json:"amount"`
	Description string             `bson:"description" json:"description"`
	Status      string             `bson:"status" json:"status"`
	PackageType string             `bson:"packageType" json:"packageType"`
	CheckoutURL string             `bson:"checkoutUrl,omitempty" json:"checkoutUrl,omitempty"`
	QRCode      string             `bson:"qrCode,omitempty" json:"qrCode,omitempty"`
	ExpiredAt   *time.Time         `bson:"expiredAt,omitempty" json:"expiredAt,omitempty"`
	PaidAt      *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ValidStatus reports whether s is a recognized payment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// packageDuration returns how much premium time a package grants.
func packageDuration(packageType string) time.Duration {
	if packageType == PackageTrial {
		return trialDays * 24 * time.Hour
	}
	return monthlyDays * 24 * time.Hour
}
