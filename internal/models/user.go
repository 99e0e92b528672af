package models

import "strings"

type UserRole string

const (
	RoleResident UserRole = "morador"
	RoleStaff    UserRole = "funcionario"
	RoleManager  UserRole = "sindico"
)

func IsValidRole(role UserRole) bool {
	switch role {
	case RoleResident, RoleStaff, RoleManager:
		return true
	}
	return false
}

// NormalizeRole lower-cases and trims a role claim.
func NormalizeRole(raw string) UserRole {
	return UserRole(strings.ToLower(strings.TrimSpace(raw)))
}

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	UserID int
	Name   string
	Role   UserRole
}

// IsStaff reports whether the actor belongs to building staff (including the manager).
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleManager
}
