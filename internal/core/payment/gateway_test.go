package payment

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"meal-planner-api/internal/core/user"
	"meal-planner-api/internal/infrastructure/config"
)

func testGateway() *Gateway {
	return NewGateway(config.PaymentConfig{
		BaseURL:     "https://gateway.example",
		ClientID:    "client",
		APIKey:      "key",
		ChecksumKey: "checksum-secret",
	}, zap.NewNop())
}

func TestVerifySignature(t *testing.T) {
	g := testGateway()

	data := map[string]interface{}{
		"orderCode": float64(1755000000123),
		"amount":    float64(29000),
		"code":      "00",
	}
	// Canonical form: alphabetically sorted query string, numbers in
	// plain decimal notation.
	valid := hmacHex("checksum-secret", "amount=29000&code=00&orderCode=1755000000123")

	if !g.VerifySignature(data, valid) {
		t.Error("valid signature rejected")
	}
	if g.VerifySignature(data, "deadbeef") {
		t.Error("invalid signature accepted")
	}

	data["amount"] = float64(1)
	if g.VerifySignature(data, valid) {
		t.Error("signature accepted after payload tampering")
	}
}

func TestVerifySignatureNilField(t *testing.T) {
	g := testGateway()

	data := map[string]interface{}{"code": "00", "desc": nil}
	valid := hmacHex("checksum-secret", "code=00&desc=")
	if !g.VerifySignature(data, valid) {
		t.Error("nil fields must canonicalize to empty strings")
	}
}

func TestPremiumExpiryStacks(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	fresh := &user.User{ID: primitive.NewObjectID()}
	if got := premiumExpiry(fresh, now, PackageMonthly); !got.Equal(now.Add(33 * 24 * time.Hour)) {
		t.Errorf("fresh monthly expiry = %v, want now+33d", got)
	}

	future := now.Add(10 * 24 * time.Hour)
	active := &user.User{ID: primitive.NewObjectID(), PremiumMembershipExpires: &future}
	if got := premiumExpiry(active, now, PackageTrial); !got.Equal(future.Add(3 * 24 * time.Hour)) {
		t.Errorf("stacked trial expiry = %v, want current expiry+3d", got)
	}

	past := now.Add(-10 * 24 * time.Hour)
	lapsed := &user.User{ID: primitive.NewObjectID(), PremiumMembershipExpires: &past}
	if got := premiumExpiry(lapsed, now, PackageMonthly); !got.Equal(now.Add(33 * 24 * time.Hour)) {
		t.Errorf("lapsed monthly expiry = %v, want now+33d", got)
	}
}

func TestSignCheckoutDeterministic(t *testing.T) {
	g := testGateway()

	req := CheckoutRequest{
		OrderCode:   123456,
		Amount:      19000,
		Description: "Premium monthly",
		ReturnURL:   "https://api.example/return",
		CancelURL:   "https://api.example/cancel",
	}
	first := g.signCheckout(req)
	second := g.signCheckout(req)
	if first != second {
		t.Error("checkout signature is not deterministic")
	}
	if len(first) != 64 {
		t.Errorf("expected a hex SHA-256 signature, got %d chars", len(first))
	}
}
