package models

import (
	"reflect"
	"testing"
)

func TestNewUser(t *testing.T) {
	type args struct {
		username       string
		email          string
		hashedPassword string
		role           Role
	}
	tests := []struct {
		name string
		args args
		want *User
	}{
		{
			name: "Create new user with all fields",
			args: args{
				username:       "alice",
				email:          "alice@x.com",
				hashedPassword: "hash",
				role:           RoleAdmin,
			},
			want: &User{
				ID:             "", // populated by the repository
				Username:       "alice",
				Email:          "alice@x.com",
				HashedPassword: "hash",
				Role:           RoleAdmin,
			},
		},
		{
			name: "Create new user with empty fields",
			args: args{},
			want: &User{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewUser(tt.args.username, tt.args.email, tt.args.hashedPassword, tt.args.role); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewUser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want bool
	}{
		{name: "admin", role: RoleAdmin, want: true},
		{name: "accountant", role: RoleAccountant, want: true},
		{name: "empty", role: "", want: false},
		{name: "unknown", role: "auditor", want: false},
		{name: "case sensitive", role: "Admin", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}
