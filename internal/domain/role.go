package domain

import (
	"fmt"
	"strings"
)

// Role enumerates back-office operator roles. The set is closed and must match
// the backend exactly.
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleManager       Role = "MANAGER"
	RoleKitchenStaff  Role = "KITCHEN_STAFF"
	RoleDeliveryStaff Role = "DELIVERY_STAFF"
)

// AllRoles lists every role tag.
var AllRoles = []Role{RoleAdmin, RoleManager, RoleKitchenStaff, RoleDeliveryStaff}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleKitchenStaff, RoleDeliveryStaff:
		return true
	}
	return false
}

// ParseRole converts a tag into a Role, rejecting unknown values.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

// Supervisor reports whether the role oversees every workflow.
func (r Role) Supervisor() bool {
	return r == RoleAdmin || r == RoleManager
}
