package types

import "testing"

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"":        RoleBuyer,
		"buyer":   RoleBuyer,
		" Agent ": RoleAgent,
		"ADMIN":   RoleAdmin,
	}
	for raw, want := range cases {
		got, err := ParseRole(raw)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseRole(%q) = %q, want %q", raw, got, want)
		}
	}

	if _, err := ParseRole("owner"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestPrincipalIsAdmin(t *testing.T) {
	var anonymous *Principal
	if anonymous.IsAdmin() {
		t.Fatalf("nil principal reported as admin")
	}
	if !(&Principal{UserID: 1, Role: RoleAdmin}).IsAdmin() {
		t.Fatalf("admin not recognised")
	}
	if Role("root").Valid() {
		t.Fatalf("unknown role reported valid")
	}
}
