package access

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ProfileService owns actor profile lifecycle. It performs no authorization
// itself: callers gate administrative mutations on the Resolver before
// invoking SetRoleAndOrganization.
type ProfileService struct {
	profiles ProfileStore
	orgs     OrganizationStore
	now      func() time.Time
}

func NewProfileService(profiles ProfileStore, orgs OrganizationStore) (*ProfileService, error) {
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if orgs == nil {
		return nil, fmt.Errorf("organization store is required")
	}
	return &ProfileService{profiles: profiles, orgs: orgs, now: time.Now}, nil
}

// EnsureProfile creates a default profile for the actor on first sight and
// returns the stored profile. Idempotent: repeated calls for a known actor
// never change the stored record, in particular they never reset the role.
func (s *ProfileService) EnsureProfile(ctx context.Context, actorID, email string) (ActorProfile, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return ActorProfile{}, fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}
	email = strings.TrimSpace(strings.ToLower(email))

	now := s.now().UTC()
	candidate := ActorProfile{
		ID:          actorID,
		Email:       email,
		DisplayName: displayNameFromEmail(email),
		Role:        RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.profiles.CreateIfAbsent(ctx, candidate); err != nil {
		return ActorProfile{}, err
	}
	return s.profiles.Get(ctx, actorID)
}

func (s *ProfileService) GetProfile(ctx context.Context, actorID string) (ActorProfile, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return ActorProfile{}, fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}
	return s.profiles.Get(ctx, actorID)
}

func (s *ProfileService) ListProfiles(ctx context.Context) ([]ActorProfile, error) {
	return s.profiles.List(ctx)
}

// SetRoleAndOrganization reassigns an actor's role and organization. When the
// new role is org_leader and an organization is given, the organization's
// leader reference is updated in a second write. The two writes are not
// atomic; a failure of the second is returned so the caller can surface the
// partial state instead of silently succeeding.
func (s *ProfileService) SetRoleAndOrganization(ctx context.Context, actorID, rawRole, orgID string) (ActorProfile, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return ActorProfile{}, fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}
	role, ok := ParseRole(rawRole)
	if !ok {
		return ActorProfile{}, fmt.Errorf("%w: unsupported role %q", ErrInvalidInput, rawRole)
	}
	orgID = strings.TrimSpace(orgID)
	if orgID != "" {
		if _, err := s.orgs.GetOrganization(ctx, orgID); err != nil {
			return ActorProfile{}, fmt.Errorf("organization lookup: %w", err)
		}
	}

	updated, err := s.profiles.Update(ctx, actorID, ProfileUpdate{Role: &role, OrganizationID: &orgID})
	if err != nil {
		return ActorProfile{}, err
	}

	if role == RoleOrgLeader && orgID != "" {
		leaderID := actorID
		if _, err := s.orgs.UpdateOrganization(ctx, orgID, OrganizationUpdate{LeaderID: &leaderID}); err != nil {
			return updated, fmt.Errorf("profile updated but leader reference not set on organization %s: %w", orgID, err)
		}
	}
	return updated, nil
}

func displayNameFromEmail(email string) string {
	if email == "" {
		return ""
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
