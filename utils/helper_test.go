package utils

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestNormalizePhoneNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"french mobile with spaces", "06 12 34 56 78", "+33612345678"},
		{"already E164", "+33612345678", "+33612345678"},
		{"empty", "", ""},
		{"unparseable returns raw", "pas un numero", "pas un numero"},
		{"invalid but parseable returns raw", "01 23", "01 23"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizePhoneNumber(tc.input, "FR"); got != tc.want {
				t.Fatalf("NormalizePhoneNumber(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(ErrorRecordNotFound) {
		t.Fatal("sentinel must be not-found")
	}
	if !IsNotFound(fmt.Errorf("wrapped: %w", ErrorRecordNotFound)) {
		t.Fatal("wrapped sentinel must be not-found")
	}
	if !IsNotFound(gorm.ErrRecordNotFound) {
		t.Fatal("gorm.ErrRecordNotFound must be not-found")
	}
	if IsNotFound(errors.New("boom")) {
		t.Fatal("arbitrary error must not be not-found")
	}
	if IsNotFound(nil) {
		t.Fatal("nil must not be not-found")
	}
}
