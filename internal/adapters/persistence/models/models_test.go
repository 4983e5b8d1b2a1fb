package models

import (
	"testing"
	"time"
)

func TestSubscriptionExpiryDerivation(t *testing.T) {
	if got := SubscriptionExpiry(nil); got != nil {
		t.Errorf("no payment must derive no expiration, got %v", got)
	}

	paidAt := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	got := SubscriptionExpiry(&paidAt)
	if got == nil {
		t.Fatal("expected a derived expiration")
	}
	want := paidAt.AddDate(0, 0, SubscriptionDays)
	if !got.Equal(want) {
		t.Errorf("expiration = %v, want payment + %d days = %v", got, SubscriptionDays, want)
	}
}

func TestSubscriptionActive(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	var u User
	if u.SubscriptionActive(now) {
		t.Error("no payment on record must be inactive")
	}

	recent := now.AddDate(0, 0, -5)
	u = User{PaidAt: &recent}
	u.ExpiresAt = u.ComputeExpiration()
	if !u.SubscriptionActive(now) {
		t.Error("payment 5 days ago must be active")
	}

	old := now.AddDate(0, 0, -40)
	u = User{PaidAt: &old}
	u.ExpiresAt = u.ComputeExpiration()
	if u.SubscriptionActive(now) {
		t.Error("payment 40 days ago must be inactive")
	}

	// Without a stored expiration the answer is computed from the payment.
	u = User{PaidAt: &recent}
	if !u.SubscriptionActive(now) {
		t.Error("active check must fall back to deriving from the payment")
	}
}

func TestSaveOverwritesCallerSuppliedExpiration(t *testing.T) {
	paidAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	bogus := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	u := User{Username: "u1a2b3c4", PaidAt: &paidAt, ExpiresAt: &bogus}
	if err := u.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}

	want := paidAt.AddDate(0, 0, SubscriptionDays)
	if u.ExpiresAt == nil || !u.ExpiresAt.Equal(want) {
		t.Errorf("expiration = %v, want recomputed %v", u.ExpiresAt, want)
	}

	// Clearing the payment clears the expiration as well.
	u.PaidAt = nil
	if err := u.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	if u.ExpiresAt != nil {
		t.Errorf("expiration must be nil without a payment, got %v", u.ExpiresAt)
	}
}

func TestSubscriptionDaysElapsed(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	var u User
	if got := u.SubscriptionDaysElapsed(now); got != -1 {
		t.Errorf("no payment: got %d, want -1", got)
	}

	paidAt := now.AddDate(0, 0, -26)
	u = User{PaidAt: &paidAt}
	if got := u.SubscriptionDaysElapsed(now); got != 26 {
		t.Errorf("got %d days, want 26", got)
	}

	// Partial days floor down.
	almost := now.Add(-(26*24*time.Hour + 23*time.Hour))
	u = User{PaidAt: &almost}
	if got := u.SubscriptionDaysElapsed(now); got != 26 {
		t.Errorf("got %d days, want 26 (floor)", got)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s, err := NewSession(7, time.Hour)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.ID == "" {
		t.Error("expected a session key")
	}
	if s.IsExpired() {
		t.Error("fresh session must not be expired")
	}

	data, err := s.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if data.UserID != 7 {
		t.Errorf("decoded user %d, want 7", data.UserID)
	}
}

func TestUserFullName(t *testing.T) {
	u := User{FirstName: "Awa", LastName: "Diallo", Email: "awa@example.edu", Username: "u1a2b3c4"}
	if got := u.FullName(); got != "Awa Diallo" {
		t.Errorf("got %q", got)
	}

	u = User{Email: "awa@example.edu", Username: "u1a2b3c4"}
	if got := u.FullName(); got != "awa@example.edu" {
		t.Errorf("got %q", got)
	}

	u = User{Username: "u1a2b3c4"}
	if got := u.FullName(); got != "u1a2b3c4" {
		t.Errorf("got %q", got)
	}
}
