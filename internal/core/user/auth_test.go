package user

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"meal-planner-api/internal/pkg/common"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	u := &User{ID: primitive.NewObjectID(), Role: RoleCustomer}

	token, err := issuer.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != u.ID.Hex() {
		t.Errorf("UserID = %q, want %q", claims.UserID, u.ID.Hex())
	}
	if claims.Role != RoleCustomer {
		t.Errorf("Role = %q, want %q", claims.Role, RoleCustomer)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, err := issuer.Issue(&User{ID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, common.ErrUnauthenticated) {
		t.Errorf("expected unauthenticated for wrong secret, got %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	// Bypass the constructor's TTL default to issue an already expired
	// token.
	issuer := &TokenIssuer{secret: []byte("test-secret"), ttl: -time.Minute}
	token, err := issuer.Issue(&User{ID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, common.ErrUnauthenticated) {
		t.Errorf("expected unauthenticated for expired token, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("password stored in plaintext")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "hunter23") {
		t.Error("wrong password accepted")
	}
}

func TestAgeAt(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	birthdayPassed := time.Date(1996, 3, 1, 0, 0, 0, 0, time.UTC)
	u := &User{BirthDate: &birthdayPassed}
	if age, ok := u.AgeAt(now); !ok || age != 30 {
		t.Errorf("AgeAt = %d/%v, want 30", age, ok)
	}

	birthdayAhead := time.Date(1996, 12, 1, 0, 0, 0, 0, time.UTC)
	u = &User{BirthDate: &birthdayAhead}
	if age, ok := u.AgeAt(now); !ok || age != 29 {
		t.Errorf("AgeAt before birthday = %d/%v, want 29", age, ok)
	}

	u = &User{}
	if _, ok := u.AgeAt(now); ok {
		t.Error("AgeAt reported ok without a birth date")
	}
}

func TestIsStudent(t *testing.T) {
	for job, want := range map[string]bool{
		JobPupil:    true,
		JobStudent:  true,
		JobEmployed: false,
		"":          false,
	} {
		u := &User{Job: job}
		if got := u.IsStudent(); got != want {
			t.Errorf("IsStudent(%q) = %v, want %v", job, got, want)
		}
	}
}
