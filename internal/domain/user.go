package domain

import (
	"strings"
	"time"
)

// Role enumerates the closed set of caller roles.
type Role string

const (
	RoleClient     Role = "CLIENT"
	RoleTechnician Role = "TECHNICIAN"
	RoleAdmin      Role = "ADMIN"
)

// Capabilities is the role-wide permission set. Ownership checks (client, assignee) are layered on
// top of it by the policy package.
type Capabilities struct {
	CanAssign       bool
	CanChangeStatus bool
	CanViewAny      bool
	CanListQueue    bool
}

var roleCapabilities = map[Role]Capabilities{
	RoleClient:     {},
	RoleTechnician: {CanAssign: true, CanListQueue: true},
	RoleAdmin:      {CanAssign: true, CanChangeStatus: true, CanViewAny: true, CanListQueue: true},
}

// Capabilities returns the permission set of the role. Unknown roles get none.
func (r Role) Capabilities() Capabilities {
	return roleCapabilities[r]
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// IsStaff reports whether r is an Admin or Technician.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleTechnician
}

// ParseRole parses a role name case-insensitively. "TechSupport" is accepted as Technician.
func ParseRole(raw string) (Role, bool) {
	switch normalizeEnum(raw) {
	case "client":
		return RoleClient, true
	case "technician", "techsupport", "tech":
		return RoleTechnician, true
	case "admin", "administrator":
		return RoleAdmin, true
	}
	return "", false
}

// User is the domain model for every account: clients, technicians and admins.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

func normalizeEnum(raw string) string {
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(raw)))
}
