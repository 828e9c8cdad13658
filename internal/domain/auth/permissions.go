package auth

import (
	"context"
	"strings"
)

const (
	RoleAdmin      = "admin"
	RoleProducer   = "producer"
	RoleAccountant = "accountant"
	RoleViewer     = "viewer"
)

const (
	PermBudgetRead  = "budget.read"
	PermBudgetWrite = "budget.write"
	PermAuditRead   = "audit.read"
)

var DefaultPermissions = []string{
	PermBudgetRead,
	PermBudgetWrite,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleAdmin:      {PermBudgetRead, PermBudgetWrite, PermAuditRead},
	RoleProducer:   {PermBudgetRead, PermBudgetWrite},
	RoleAccountant: {PermBudgetRead, PermBudgetWrite},
	RoleViewer:     {PermBudgetRead},
}

// StaticPermissions resolves permissions from RolePermissions. Role names are
// matched case-insensitively.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	for _, perm := range RolePermissions[strings.ToLower(strings.TrimSpace(role))] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}

func KnownRole(role string) bool {
	_, ok := RolePermissions[strings.ToLower(strings.TrimSpace(role))]
	return ok
}
