// Package policy decides whether a caller may perform a ticket action. Every function is pure: it
// looks only at the caller identity and the already-loaded ticket.
package policy

import (
	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Action names an operation gated by the policy.
type Action string

const (
	ActionView           Action = "view"
	ActionCreate         Action = "create"
	ActionAddMessage     Action = "add a message to"
	ActionAssign         Action = "assign"
	ActionChangeStatus   Action = "change the status of"
	ActionClose          Action = "close"
	ActionReopen         Action = "reopen"
	ActionListUnassigned Action = "view"
	ActionListOwned      Action = "view"
)

// Resource kinds reported in Forbidden errors.
const (
	ResourceTicket            = "ticket"
	ResourceUnassignedTickets = "unassigned tickets"
	ResourceAssignedTickets   = "assigned tickets"
	ResourceClientTickets     = "client tickets"
	ResourceTechnicianTickets = "technician tickets"
	ResourceUser              = "user"
)

// Authenticated rejects anonymous callers before any other check.
func Authenticated(caller domain.Identity) error {
	if !caller.IsAuthenticated() {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}

// isParticipant reports whether the caller is the ticket's client or its assignee.
func isParticipant(caller domain.Identity, ticket *domain.Ticket) bool {
	return caller.Is(ticket.ClientID) || caller.IsPtr(ticket.AssignedTechnicianID)
}

// CanView permits the ticket's client, its assigned technician and admins. Technicians who are
// not the assignee are denied.
func CanView(caller domain.Identity, ticket *domain.Ticket) error {
	if isParticipant(caller, ticket) || caller.Capabilities().CanViewAny {
		return nil
	}
	return apperrors.NewForbidden(string(ActionView), ResourceTicket)
}

// CanCreate permits any authenticated caller; the ticket owner is always the caller.
func CanCreate(caller domain.Identity) error {
	if !caller.IsAuthenticated() {
		return apperrors.NewForbidden(string(ActionCreate), ResourceTicket)
	}
	return nil
}

// CanAddMessage follows the view rule.
func CanAddMessage(caller domain.Identity, ticket *domain.Ticket) error {
	if isParticipant(caller, ticket) || caller.Capabilities().CanViewAny {
		return nil
	}
	return apperrors.NewForbidden(string(ActionAddMessage), ResourceTicket)
}

// CanAssign permits any staff role with the assign capability.
func CanAssign(caller domain.Identity) error {
	if caller.Capabilities().CanAssign {
		return nil
	}
	return apperrors.NewForbidden(string(ActionAssign), ResourceTicket)
}

// CanChangeStatus permits the assigned technician and admins.
func CanChangeStatus(caller domain.Identity, ticket *domain.Ticket) error {
	if caller.IsPtr(ticket.AssignedTechnicianID) || caller.Capabilities().CanChangeStatus {
		return nil
	}
	return apperrors.NewForbidden(string(ActionChangeStatus), ResourceTicket)
}

// CanClose permits the assigned technician and admins.
func CanClose(caller domain.Identity, ticket *domain.Ticket) error {
	if caller.IsPtr(ticket.AssignedTechnicianID) || caller.Capabilities().CanChangeStatus {
		return nil
	}
	return apperrors.NewForbidden(string(ActionClose), ResourceTicket)
}

// CanReopen permits the ticket's client and admins.
func CanReopen(caller domain.Identity, ticket *domain.Ticket) error {
	if caller.Is(ticket.ClientID) || caller.Capabilities().CanChangeStatus {
		return nil
	}
	return apperrors.NewForbidden(string(ActionReopen), ResourceTicket)
}

// CanListUnassigned permits staff only.
func CanListUnassigned(caller domain.Identity) error {
	if caller.Capabilities().CanListQueue {
		return nil
	}
	return apperrors.NewForbidden(string(ActionListUnassigned), ResourceUnassignedTickets)
}

// CanListAssigned permits staff only. Clients never hold assignments.
func CanListAssigned(caller domain.Identity) error {
	if caller.Capabilities().CanListQueue {
		return nil
	}
	return apperrors.NewForbidden(string(ActionListOwned), ResourceAssignedTickets)
}

// CanListClientTickets permits the client themself and admins.
func CanListClientTickets(caller domain.Identity, clientID string) error {
	if caller.Is(clientID) || caller.Capabilities().CanViewAny {
		return nil
	}
	return apperrors.NewForbidden(string(ActionListOwned), ResourceClientTickets)
}

// CanListTechnicianTickets permits the technician themself and admins.
func CanListTechnicianTickets(caller domain.Identity, technicianID string) error {
	if caller.Is(technicianID) || caller.Capabilities().CanViewAny {
		return nil
	}
	return apperrors.NewForbidden(string(ActionListOwned), ResourceTechnicianTickets)
}

// CanViewUser permits the user themself and staff.
func CanViewUser(caller domain.Identity, userID string) error {
	if caller.Is(userID) || caller.Role.IsStaff() {
		return nil
	}
	return apperrors.NewForbidden(string(ActionView), ResourceUser)
}

// CanProvisionUsers permits admins.
func CanProvisionUsers(caller domain.Identity) error {
	if caller.Role == domain.RoleAdmin {
		return nil
	}
	return apperrors.NewForbidden(string(ActionCreate), ResourceUser)
}
