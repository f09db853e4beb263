package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret-password" {
		t.Fatal("password stored in plain text")
	}

	if err := CheckPassword("s3cret-password", hash); err != nil {
		t.Errorf("CheckPassword rejected the correct password: %v", err)
	}
	if err := CheckPassword("wrong-password", hash); err == nil {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestGenerateRandomString(t *testing.T) {
	a, err := GenerateRandomString(16)
	if err != nil {
		t.Fatalf("GenerateRandomString failed: %v", err)
	}
	b, err := GenerateRandomString(16)
	if err != nil {
		t.Fatalf("GenerateRandomString failed: %v", err)
	}
	if a == b {
		t.Error("two random strings were identical")
	}
}

func TestValidateStruct(t *testing.T) {
	type sample struct {
		Email string `json:"email" validate:"required,email"`
		Age   int    `json:"age" validate:"min=1"`
	}

	if errs := ValidateStruct(sample{Email: "a@b.com", Age: 20}); errs != nil {
		t.Errorf("valid struct reported errors: %+v", errs)
	}

	errs := ValidateStruct(sample{Email: "not-an-email", Age: 0})
	if len(errs) != 2 {
		t.Fatalf("expected 2 field errors, got %d: %+v", len(errs), errs)
	}
}
