package models

import "testing"

func TestUserFullName(t *testing.T) {
	tests := []struct {
		name  string
		first string
		last  string
		want  string
	}{
		{name: "both names", first: "Jane", last: "Doe", want: "Jane Doe"},
		{name: "first only", first: "Jane", want: "Jane"},
		{name: "last only", last: "Doe", want: "Doe"},
		{name: "neither", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{FirstName: tt.first, LastName: tt.last}
			if got := u.FullName(); got != tt.want {
				t.Errorf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestUserCheckPassword verifies bcrypt round-tripping through
// HashPassword and CheckPassword.
func TestUserCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not be plaintext")
	}

	u := &User{PasswordHash: hash}
	if !u.CheckPassword("s3cret-pass") {
		t.Error("expected correct password to match")
	}
	if u.CheckPassword("wrong") {
		t.Error("expected wrong password to fail")
	}
	if (&User{}).CheckPassword("") {
		t.Error("user without a hash must never match")
	}
}

func TestUserCanAuthenticate(t *testing.T) {
	if !(&User{IsActive: true}).CanAuthenticate() {
		t.Error("active user should authenticate")
	}
	if (&User{IsActive: false}).CanAuthenticate() {
		t.Error("inactive user should not authenticate")
	}
}
