package access

import "context"

// ProfileUpdate carries the mutable ActorProfile fields. Nil means "leave
// unchanged"; an empty OrganizationID pointer clears the membership.
type ProfileUpdate struct {
	Role           *Role
	OrganizationID *string
	DisplayName    *string
}

// ProfileStore persists actor profiles.
type ProfileStore interface {
	// CreateIfAbsent inserts the profile unless one with the same ID already
	// exists, and reports whether an insert happened. Re-running it against an
	// existing profile must leave that profile untouched.
	CreateIfAbsent(ctx context.Context, p ActorProfile) (bool, error)
	Get(ctx context.Context, id string) (ActorProfile, error)
	List(ctx context.Context) ([]ActorProfile, error)
	ListByOrganization(ctx context.Context, orgID string) ([]ActorProfile, error)
	Update(ctx context.Context, id string, upd ProfileUpdate) (ActorProfile, error)
}

// OrganizationUpdate carries the mutable Organization fields.
type OrganizationUpdate struct {
	Name     *string
	LeaderID *string
}

// OrganizationStore persists organizations. Membership is not stored here;
// it lives on the profiles and is read through ProfileStore.ListByOrganization.
type OrganizationStore interface {
	CreateOrganization(ctx context.Context, org Organization) error
	GetOrganization(ctx context.Context, id string) (Organization, error)
	ListOrganizations(ctx context.Context) ([]Organization, error)
	UpdateOrganization(ctx context.Context, id string, upd OrganizationUpdate) (Organization, error)
	DeleteOrganization(ctx context.Context, id string) error
}

// GrantStore persists permission grants.
type GrantStore interface {
	CreateGrant(ctx context.Context, g PermissionGrant) error
	GetGrant(ctx context.Context, id string) (PermissionGrant, error)
	// SetGrantStatus transitions the grant and stamps approvedAt when the new
	// status is approved. The caller is responsible for transition rules.
	SetGrantStatus(ctx context.Context, id string, status GrantStatus) (PermissionGrant, error)
	// ApprovedGrantsTo returns every approved grant whose recipient is actorID.
	ApprovedGrantsTo(ctx context.Context, actorID string) ([]PermissionGrant, error)
	// ApprovedGrantFrom returns the approved grant ownerID -> actorID, or
	// ErrNotFound when no such grant exists.
	ApprovedGrantFrom(ctx context.Context, ownerID, actorID string) (PermissionGrant, error)
	ListGrantsFrom(ctx context.Context, ownerID string) ([]PermissionGrant, error)
	ListGrantsTo(ctx context.Context, actorID string) ([]PermissionGrant, error)
}
