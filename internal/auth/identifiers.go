package auth

import (
	"fmt"
	"strings"
)

// Prefix constants for casbin subjects. Users and roles share one subject
// space in the policy table, so every identifier carries a prefix.
const (
	PrefixUser = "user:"
	PrefixRole = "role:"
)

// UserID creates a casbin user identifier.
// Example: UserID("0190c1c2-...") → "user:0190c1c2-..."
func UserID(id string) string {
	return PrefixUser + id
}

// RoleID creates a casbin role identifier.
// Example: RoleID("exam-office") → "role:exam-office"
func RoleID(name string) string {
	return PrefixRole + name
}

// ExtractUserID strips the user prefix from a casbin subject.
func ExtractUserID(principal string) (string, error) {
	if !strings.HasPrefix(principal, PrefixUser) {
		return "", fmt.Errorf("invalid user principal: %s (expected prefix %s)", principal, PrefixUser)
	}
	return strings.TrimPrefix(principal, PrefixUser), nil
}

// ExtractRoleID strips the role prefix from a casbin subject.
func ExtractRoleID(principal string) (string, error) {
	if !strings.HasPrefix(principal, PrefixRole) {
		return "", fmt.Errorf("invalid role principal: %s (expected prefix %s)", principal, PrefixRole)
	}
	return strings.TrimPrefix(principal, PrefixRole), nil
}
