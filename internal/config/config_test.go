package config

import (
	"testing"
)

func TestNew(t *testing.T) {
	cfg := New()
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.Region == "" {
		t.Error("expected non-empty region")
	}
	if cfg.TimeoutMinutes == 0 {
		t.Error("expected non-zero timeout")
	}
	if cfg.LockFile == "" {
		t.Error("expected non-empty lock file path")
	}
	if cfg.DefaultZone == "" {
		t.Error("expected non-empty default zone")
	}
}

func TestValidEnvironment(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"dev", true},
		{"prod", true},
		{"staging", false},
		{"DEV", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := ValidEnvironment(tt.env); got != tt.expected {
				t.Errorf("ValidEnvironment(%q) = %v, want %v", tt.env, got, tt.expected)
			}
		})
	}
}

func TestTableSet_Dev(t *testing.T) {
	cfg := &Config{Environment: "dev"}
	tables, err := cfg.TableSet()
	if err != nil {
		t.Fatalf("TableSet: %v", err)
	}

	if len(tables) != 3 {
		t.Fatalf("expected 3 tables, got %d", len(tables))
	}
	if tables[RoleQuotes] != "quote-lambda-tf-quotes-dev" {
		t.Errorf("quotes table = %q", tables[RoleQuotes])
	}
	if tables[RoleUserLikes] != "quote-lambda-tf-user-likes-dev" {
		t.Errorf("user_likes table = %q", tables[RoleUserLikes])
	}
	if tables[RoleUserViews] != "quote-lambda-tf-user-views-dev" {
		t.Errorf("user_views table = %q", tables[RoleUserViews])
	}
}

func TestTableSet_Prod(t *testing.T) {
	cfg := &Config{Environment: "prod"}
	tables, err := cfg.TableSet()
	if err != nil {
		t.Fatalf("TableSet: %v", err)
	}

	for role, name := range tables {
		if name == "" {
			t.Errorf("empty table name for role %q", role)
		}
		if len(name) > 4 && name[len(name)-4:] == "-dev" {
			t.Errorf("prod table %q carries dev suffix", name)
		}
	}
}

func TestTableSet_InvalidEnvironment(t *testing.T) {
	cfg := &Config{Environment: "staging"}
	if _, err := cfg.TableSet(); err == nil {
		t.Error("expected error for invalid environment")
	}
}

func TestRoles_StableOrder(t *testing.T) {
	first := Roles()
	second := Roles()
	if len(first) != 3 {
		t.Fatalf("expected 3 roles, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("role order not stable: %v vs %v", first, second)
		}
	}
}
