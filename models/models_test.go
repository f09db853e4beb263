package models

import "testing"

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleTeacher, true},
		{RolePrincipal, true},
		{RoleSuperAdmin, true},
		{Role("ADMIN"), false},
		{Role("teacher"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestRoleCanManageTimetable(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleTeacher, false},
		{RolePrincipal, true},
		{RoleSuperAdmin, true},
		{Role("ADMIN"), false},
	}

	for _, tt := range tests {
		if got := tt.role.CanManageTimetable(); got != tt.want {
			t.Errorf("Role(%q).CanManageTimetable() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestJSONValueAndScan(t *testing.T) {
	var j JSON
	if err := j.Scan([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	v, err := j.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != `{"a":1}` {
		t.Errorf("Value = %v, want {\"a\":1}", v)
	}

	var empty JSON
	v, err = empty.Value()
	if err != nil {
		t.Fatalf("Value on empty failed: %v", err)
	}
	if v != nil {
		t.Errorf("empty JSON must serialize as SQL NULL, got %v", v)
	}
}
