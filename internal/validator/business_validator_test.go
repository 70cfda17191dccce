package validator

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidator_SignUpRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     SignUpRequest
		wantErr bool
	}{
		{"valid", SignUpRequest{Name: "Alice", Email: "alice@example.com", Password: "password1"}, false},
		{"valid with role", SignUpRequest{Name: "Alice", Email: "alice@example.com", Password: "password1", Role: "instructor"}, false},
		{"missing name", SignUpRequest{Email: "alice@example.com", Password: "password1"}, true},
		{"short name", SignUpRequest{Name: "A", Email: "alice@example.com", Password: "password1"}, true},
		{"bad email", SignUpRequest{Name: "Alice", Email: "not-an-email", Password: "password1"}, true},
		{"short password", SignUpRequest{Name: "Alice", Email: "alice@example.com", Password: "ab1"}, true},
		{"no digit", SignUpRequest{Name: "Alice", Email: "alice@example.com", Password: "onlyletters"}, true},
		{"no letter", SignUpRequest{Name: "Alice", Email: "alice@example.com", Password: "12345678"}, true},
		{"password too long", SignUpRequest{Name: "Alice", Email: "alice@example.com", Password: strings.Repeat("a", 72) + "1"}, true},
		{"unknown role", SignUpRequest{Name: "Alice", Email: "alice@example.com", Password: "password1", Role: "wizard"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidator_PasswordValueNeverEchoed(t *testing.T) {
	v := New()

	secret := "short1"
	err := v.Validate(SignUpRequest{Name: "Alice", Email: "alice@example.com", Password: secret})

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Validate() error = %v, want ValidationErrors", err)
	}

	for _, ve := range verrs {
		if ve.Value != nil && strings.Contains(fmt.Sprintf("%v", ve.Value), secret) {
			t.Errorf("validation error for %s echoes the password value", ve.Field)
		}
	}
}

func TestValidator_UpdateProfileRequest(t *testing.T) {
	v := New()

	longBio := strings.Repeat("x", 501)
	badEmail := "nope"
	okName := "Alice"

	if err := v.Validate(UpdateProfileRequest{Name: &okName}); err != nil {
		t.Errorf("Validate() partial update error = %v", err)
	}
	if err := v.Validate(UpdateProfileRequest{}); err != nil {
		t.Errorf("Validate() empty update error = %v", err)
	}
	if err := v.Validate(UpdateProfileRequest{Email: &badEmail}); err == nil {
		t.Error("Validate() accepted a bad email")
	}
	if err := v.Validate(UpdateProfileRequest{Bio: &longBio}); err == nil {
		t.Error("Validate() accepted an oversized bio")
	}
}
