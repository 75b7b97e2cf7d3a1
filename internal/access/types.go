package access

import (
	"strings"
	"time"
)

// Role is the coarse trust level of an actor. Precedence between roles is
// strict: admin > org_leader-with-organization > everyone else. Privileges do
// not compose across levels; an admin who is also an org leader gets the admin
// scope, nothing more.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrgLeader Role = "org_leader"
	RoleUser      Role = "user"
)

// ParseRole normalizes and validates a role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleOrgLeader:
		return RoleOrgLeader, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// ActorProfile is the per-actor record this subsystem keeps. The ID is an
// opaque identifier assigned by the external identity provider at first login.
// OrganizationID may be empty even when the role is org_leader; the resolver
// tolerates that state instead of failing.
type ActorProfile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name,omitempty"`
	Role           Role      `json:"role"`
	OrganizationID string    `json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Organization groups actor profiles. Membership is always derived by
// filtering profiles on OrganizationID; no member list is stored.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LeaderID  string    `json:"leader_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GrantStatus is the lifecycle state of a permission grant. Only approved
// grants have any effect on visibility or mutation checks.
type GrantStatus string

const (
	GrantPending  GrantStatus = "pending"
	GrantApproved GrantStatus = "approved"
	GrantRejected GrantStatus = "rejected"
	GrantRevoked  GrantStatus = "revoked"
)

// PermissionGrant is a peer-to-peer capability: FromUserID (the data owner)
// allows ToUserID to view and/or edit the owner's records. The two capability
// bits are independent; neither implies the other.
type PermissionGrant struct {
	ID          string      `json:"id"`
	FromUserID  string      `json:"from_user_id"`
	ToUserID    string      `json:"to_user_id"`
	Status      GrantStatus `json:"status"`
	CanView     bool        `json:"can_view"`
	CanEdit     bool        `json:"can_edit"`
	RequestedAt time.Time   `json:"requested_at"`
	ApprovedAt  *time.Time  `json:"approved_at,omitempty"`
}
