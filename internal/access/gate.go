// Package access holds the authorization decisions for complaints and users.
// Every function is pure: callers resolve the identity and load the target
// resource first, then act on the returned Decision.
package access

import (
	"fmt"

	"denuncias/internal/models"
)

// Identity is the authenticated caller. Role is the role resolved from the
// user store at request time, not the one embedded in the token.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// RequireRole allows iff the identity's role equals role.
func RequireRole(id Identity, role string) Decision {
	if id.UserID == "" {
		return deny("no authenticated identity")
	}
	if id.Role != role {
		return deny("requires role " + role)
	}
	return allow()
}

// CanViewComplaint allows the owner and admins.
func CanViewComplaint(id Identity, c *models.Complaint) Decision {
	return ownerOrAdmin(id, c, "only the owner or an admin can view this complaint")
}

// CanModifyComplaint allows the owner and admins to update or delete c.
func CanModifyComplaint(id Identity, c *models.Complaint) Decision {
	return ownerOrAdmin(id, c, "only the owner or an admin can modify this complaint")
}

// CanChangeStatus decides a status transition. Admins moderate freely;
// owners may only withdraw their own complaint.
func CanChangeStatus(id Identity, c *models.Complaint, status string) Decision {
	if id.IsAdmin() {
		return allow()
	}
	if d := CanModifyComplaint(id, c); !d.Allowed {
		return d
	}
	if status == models.StatusCancelled || status == c.Status {
		return allow()
	}
	return deny("only an admin can set status " + status)
}

// CanViewUser allows a user to read their own record, and admins any record.
func CanViewUser(id Identity, userID string) Decision {
	if id.UserID != "" && (id.UserID == userID || id.IsAdmin()) {
		return allow()
	}
	return deny("only the user or an admin can access this user")
}

func ownerOrAdmin(id Identity, c *models.Complaint, reason string) Decision {
	if id.UserID == "" || c == nil {
		return deny(reason)
	}
	if id.IsAdmin() || c.UserID == id.UserID {
		return allow()
	}
	return deny(reason)
}

// Err converts a denial into an error wrapping models.ErrForbidden.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%s: %w", d.Reason, models.ErrForbidden)
}
