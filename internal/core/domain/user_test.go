package domain

import "testing"

func TestIsAdministrator(t *testing.T) {
	cases := map[string]bool{
		"Administrator": true,
		"administrator": true,
		"ADMINISTRATOR": true,
		"User":          false,
		"":              false,
		"Admin":         false,
	}
	for role, want := range cases {
		if got := IsAdministrator(role); got != want {
			t.Errorf("IsAdministrator(%q) = %v, want %v", role, got, want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Foo@Bar.com "); got != "foo@bar.com" {
		t.Fatalf("unexpected normalized email: %q", got)
	}
}

func TestUser_FullName(t *testing.T) {
	u := User{FirstName: "Ana", LastName: "Gómez"}
	if got := u.FullName(); got != "Ana Gómez" {
		t.Fatalf("unexpected full name: %q", got)
	}
	if got := (User{LastName: "Solo"}).FullName(); got != "Solo" {
		t.Fatalf("expected trimmed full name, got %q", got)
	}
}
