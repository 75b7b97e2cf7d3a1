package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldbook.org/internal/ids"
)

// DirectoryService owns organization lifecycle and derived membership.
type DirectoryService struct {
	orgs     OrganizationStore
	profiles ProfileStore
	now      func() time.Time
}

func NewDirectoryService(orgs OrganizationStore, profiles ProfileStore) (*DirectoryService, error) {
	if orgs == nil {
		return nil, fmt.Errorf("organization store is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	return &DirectoryService{orgs: orgs, profiles: profiles, now: time.Now}, nil
}

// CreateOrganization creates an organization and, when initialLeaderID is
// given, promotes that actor to org_leader of the new organization. The
// promotion is a separate write: when it fails the organization already
// exists, so the error is returned together with the created record and the
// caller must surface the inconsistency rather than treat the call as a
// clean success.
func (s *DirectoryService) CreateOrganization(ctx context.Context, name, initialLeaderID string) (Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Organization{}, fmt.Errorf("%w: organization name is required", ErrInvalidInput)
	}
	initialLeaderID = strings.TrimSpace(initialLeaderID)
	if initialLeaderID != "" {
		if _, err := s.profiles.Get(ctx, initialLeaderID); err != nil {
			return Organization{}, fmt.Errorf("leader lookup: %w", err)
		}
	}

	now := s.now().UTC()
	org := Organization{
		ID:        ids.New(),
		Name:      name,
		LeaderID:  initialLeaderID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orgs.CreateOrganization(ctx, org); err != nil {
		return Organization{}, err
	}

	if initialLeaderID != "" {
		role := RoleOrgLeader
		orgID := org.ID
		if _, err := s.profiles.Update(ctx, initialLeaderID, ProfileUpdate{Role: &role, OrganizationID: &orgID}); err != nil {
			return org, fmt.Errorf("organization %s created but leader %s not promoted: %w", org.ID, initialLeaderID, err)
		}
	}
	return org, nil
}

func (s *DirectoryService) GetOrganization(ctx context.Context, orgID string) (Organization, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return Organization{}, fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}
	return s.orgs.GetOrganization(ctx, orgID)
}

func (s *DirectoryService) ListOrganizations(ctx context.Context) ([]Organization, error) {
	return s.orgs.ListOrganizations(ctx)
}

// RenameOrganization changes the display name only; leadership and membership
// are managed through their own operations.
func (s *DirectoryService) RenameOrganization(ctx context.Context, orgID, name string) (Organization, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return Organization{}, fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Organization{}, fmt.Errorf("%w: organization name is required", ErrInvalidInput)
	}
	return s.orgs.UpdateOrganization(ctx, orgID, OrganizationUpdate{Name: &name})
}

// MembersOf returns the profiles whose organization reference equals orgID.
// This filter query is the only source of truth for membership.
func (s *DirectoryService) MembersOf(ctx context.Context, orgID string) ([]ActorProfile, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}
	return s.profiles.ListByOrganization(ctx, orgID)
}

// DeleteOrganization resets every member to an unaffiliated plain user and
// then deletes the organization record. The resets run first so a concurrent
// reader never observes a member pointing at a missing organization. Each
// reset is idempotent, so a retry after a partial failure is safe; the cascade
// as a whole is best effort, not a transaction.
func (s *DirectoryService) DeleteOrganization(ctx context.Context, orgID string) error {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}
	if _, err := s.orgs.GetOrganization(ctx, orgID); err != nil {
		return err
	}

	members, err := s.profiles.ListByOrganization(ctx, orgID)
	if err != nil {
		return fmt.Errorf("enumerate members of %s: %w", orgID, err)
	}
	role := RoleUser
	noOrg := ""
	for _, m := range members {
		if _, err := s.profiles.Update(ctx, m.ID, ProfileUpdate{Role: &role, OrganizationID: &noOrg}); err != nil {
			if errors.Is(err, ErrNotFound) {
				// Profile vanished mid-cascade; the goal state already holds.
				continue
			}
			return fmt.Errorf("reset member %s of %s: %w", m.ID, orgID, err)
		}
	}
	if err := s.orgs.DeleteOrganization(ctx, orgID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
