package validation

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeAt_BirthdayAlreadyPassed(t *testing.T) {
	dob := date(1995, time.March, 10)
	at := date(2025, time.June, 1)

	if got := AgeAt(dob, at); got != 30 {
		t.Fatalf("expected age 30, got %d", got)
	}
}

func TestAgeAt_BirthdayNotYetReached(t *testing.T) {
	dob := date(1995, time.September, 10)
	at := date(2025, time.June, 1)

	// todavía no cumplió este año
	if got := AgeAt(dob, at); got != 29 {
		t.Fatalf("expected age 29, got %d", got)
	}
}

func TestAgeAt_OnBirthday(t *testing.T) {
	dob := date(2000, time.June, 1)
	at := date(2025, time.June, 1)

	if got := AgeAt(dob, at); got != 25 {
		t.Fatalf("expected age 25 on birthday, got %d", got)
	}
}

func TestAgeRangeMessage_Boundaries(t *testing.T) {
	at := date(2025, time.June, 1)

	cases := []struct {
		name    string
		dob     time.Time
		wantErr bool
	}{
		{"just 18", date(2007, time.June, 1), false},
		{"17, birthday tomorrow", date(2007, time.June, 2), true},
		{"exactly 100", date(1925, time.June, 1), false},
		{"101", date(1924, time.May, 1), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := AgeRangeMessage(tc.dob, at, 18, 100)
			if tc.wantErr && msg == "" {
				t.Fatalf("expected a message for dob %v", tc.dob)
			}
			if !tc.wantErr && msg != "" {
				t.Fatalf("unexpected message %q for dob %v", msg, tc.dob)
			}
		})
	}
}

func TestError_FieldAccumulation(t *testing.T) {
	ve := NewError()
	if ve.HasErrors() {
		t.Fatal("new error should be empty")
	}

	ve.Add("email", "email is required")
	ve.Add("email", "invalid email address")
	ve.Add("name", "name is required")

	if !ve.HasErrors() {
		t.Fatal("expected errors")
	}
	if len(ve.Fields["email"]) != 2 {
		t.Fatalf("expected 2 email messages, got %d", len(ve.Fields["email"]))
	}

	if AsError(ve) == nil {
		t.Fatal("AsError should unwrap a validation error")
	}
}
