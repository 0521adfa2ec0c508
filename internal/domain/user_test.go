package domain

import (
	"errors"
	"testing"
)

func TestValidateMobileNumber(t *testing.T) {
	valid := []string{"9876543210", "0000000000"}
	invalid := []string{"", "987654321", "98765432100", "98765x3210", "+919876543"}

	for _, m := range valid {
		if err := ValidateMobileNumber(m); err != nil {
			t.Errorf("%q: unexpected error %v", m, err)
		}
	}
	for _, m := range invalid {
		if err := ValidateMobileNumber(m); !errors.Is(err, ErrMobileNumberInvalid) {
			t.Errorf("%q: expected ErrMobileNumberInvalid, got %v", m, err)
		}
	}
}

func TestUser_Validate(t *testing.T) {
	if err := (User{ID: "user-001", MobileNumber: "9876543210"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := User{MobileNumber: "123"}.Validate()
	if !errors.Is(err, ErrUserIDRequired) || !errors.Is(err, ErrMobileNumberInvalid) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestErrorFamilies(t *testing.T) {
	if !IsNotFound(ErrProductNotFound) || !IsNotFound(ErrOrderNotFound) || !IsNotFound(ErrUserNotFound) {
		t.Fatal("not-found errors must match ErrNotFound")
	}
	if ErrProductNotFound.Error() != "product not found" {
		t.Fatalf("unexpected message %q", ErrProductNotFound.Error())
	}
	if IsValidation(ErrInsufficientStock) || IsNotFound(ErrStorage) {
		t.Fatal("unrelated errors must not match")
	}
	if !Role("farmer").IsValid() || Role("admin").IsValid() {
		t.Fatal("unexpected role validation")
	}
}
