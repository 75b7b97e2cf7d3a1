package access

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestDirectory(t *testing.T, orgs OrganizationStore, profiles ProfileStore) *DirectoryService {
	t.Helper()
	s, err := NewDirectoryService(orgs, profiles)
	if err != nil {
		t.Fatalf("NewDirectoryService: %v", err)
	}
	return s
}

func TestCreateOrganizationPromotesInitialLeader(t *testing.T) {
	var promoted ProfileUpdate
	var promotedID string
	profiles := &stubProfileStore{
		updateFn: func(_ context.Context, id string, upd ProfileUpdate) (ActorProfile, error) {
			promotedID = id
			promoted = upd
			return ActorProfile{ID: id}, nil
		},
	}
	s := newTestDirectory(t, &stubOrganizationStore{}, profiles)

	org, err := s.CreateOrganization(context.Background(), "North Farm Co-op", "leader-1")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if org.ID == "" || org.Name != "North Farm Co-op" || org.LeaderID != "leader-1" {
		t.Fatalf("org = %+v", org)
	}
	if promotedID != "leader-1" {
		t.Fatalf("promoted %q, want leader-1", promotedID)
	}
	if promoted.Role == nil || *promoted.Role != RoleOrgLeader {
		t.Fatalf("promotion update = %+v, want org_leader role", promoted)
	}
	if promoted.OrganizationID == nil || *promoted.OrganizationID != org.ID {
		t.Fatalf("promotion did not bind the leader to %s", org.ID)
	}
}

func TestCreateOrganizationSurfacesFailedPromotion(t *testing.T) {
	boom := errors.New("profile write failed")
	profiles := &stubProfileStore{
		updateFn: func(context.Context, string, ProfileUpdate) (ActorProfile, error) {
			return ActorProfile{}, boom
		},
	}
	s := newTestDirectory(t, &stubOrganizationStore{}, profiles)

	org, err := s.CreateOrganization(context.Background(), "Orchard Group", "leader-1")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	// The organization record exists; the caller gets both facts.
	if org.ID == "" {
		t.Fatalf("created organization not returned alongside the error")
	}
	if !strings.Contains(err.Error(), "not promoted") {
		t.Fatalf("err %q does not mention the failed promotion", err)
	}
}

func TestCreateOrganizationUnknownLeader(t *testing.T) {
	profiles := &stubProfileStore{
		getFn: func(context.Context, string) (ActorProfile, error) {
			return ActorProfile{}, ErrNotFound
		},
	}
	orgs := &stubOrganizationStore{
		createOrganizationFn: func(context.Context, Organization) error {
			t.Fatal("organization must not be created when the leader lookup fails")
			return nil
		},
	}
	s := newTestDirectory(t, orgs, profiles)
	if _, err := s.CreateOrganization(context.Background(), "Ghost Farm", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateOrganizationRequiresName(t *testing.T) {
	s := newTestDirectory(t, &stubOrganizationStore{}, &stubProfileStore{})
	if _, err := s.CreateOrganization(context.Background(), "   ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDeleteOrganizationResetsMembersFirst(t *testing.T) {
	var resets []string
	orgDeleted := false
	profiles := &stubProfileStore{
		listByOrganizationFn: func(context.Context, string) ([]ActorProfile, error) {
			return []ActorProfile{
				{ID: "leader-1", Role: RoleOrgLeader, OrganizationID: "org-1"},
				{ID: "member-1", Role: RoleUser, OrganizationID: "org-1"},
			}, nil
		},
		updateFn: func(_ context.Context, id string, upd ProfileUpdate) (ActorProfile, error) {
			if orgDeleted {
				t.Fatal("member reset after organization delete; resets must run first")
			}
			if upd.Role == nil || *upd.Role != RoleUser {
				t.Fatalf("reset of %s did not demote to user: %+v", id, upd)
			}
			if upd.OrganizationID == nil || *upd.OrganizationID != "" {
				t.Fatalf("reset of %s did not clear the organization: %+v", id, upd)
			}
			resets = append(resets, id)
			return ActorProfile{ID: id, Role: RoleUser}, nil
		},
	}
	orgs := &stubOrganizationStore{
		deleteOrganizationFn: func(_ context.Context, id string) error {
			orgDeleted = true
			return nil
		},
	}
	s := newTestDirectory(t, orgs, profiles)

	if err := s.DeleteOrganization(context.Background(), "org-1"); err != nil {
		t.Fatalf("DeleteOrganization: %v", err)
	}
	if len(resets) != 2 {
		t.Fatalf("reset %d members, want 2", len(resets))
	}
	if !orgDeleted {
		t.Fatal("organization record not deleted")
	}
}

func TestDeleteOrganizationStopsOnResetFailure(t *testing.T) {
	boom := errors.New("profile write failed")
	profiles := &stubProfileStore{
		listByOrganizationFn: func(context.Context, string) ([]ActorProfile, error) {
			return []ActorProfile{{ID: "member-1", OrganizationID: "org-1"}}, nil
		},
		updateFn: func(context.Context, string, ProfileUpdate) (ActorProfile, error) {
			return ActorProfile{}, boom
		},
	}
	orgs := &stubOrganizationStore{
		deleteOrganizationFn: func(context.Context, string) error {
			t.Fatal("organization must survive when a member reset fails")
			return nil
		},
	}
	s := newTestDirectory(t, orgs, profiles)
	if err := s.DeleteOrganization(context.Background(), "org-1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestDeleteOrganizationToleratesVanishedMember(t *testing.T) {
	profiles := &stubProfileStore{
		listByOrganizationFn: func(context.Context, string) ([]ActorProfile, error) {
			return []ActorProfile{
				{ID: "member-1", OrganizationID: "org-1"},
				{ID: "member-2", OrganizationID: "org-1"},
			}, nil
		},
		updateFn: func(_ context.Context, id string, _ ProfileUpdate) (ActorProfile, error) {
			if id == "member-1" {
				return ActorProfile{}, ErrNotFound
			}
			return ActorProfile{ID: id}, nil
		},
	}
	orgDeleted := false
	orgs := &stubOrganizationStore{
		deleteOrganizationFn: func(context.Context, string) error {
			orgDeleted = true
			return nil
		},
	}
	s := newTestDirectory(t, orgs, profiles)
	if err := s.DeleteOrganization(context.Background(), "org-1"); err != nil {
		t.Fatalf("DeleteOrganization: %v", err)
	}
	if !orgDeleted {
		t.Fatal("cascade did not finish after a vanished member")
	}
}

func TestDeleteOrganizationRetryAfterPartialFailure(t *testing.T) {
	// Retry of a cascade whose record delete already happened: the second run
	// sees no members and a missing record, and still reports success.
	profiles := &stubProfileStore{
		listByOrganizationFn: func(context.Context, string) ([]ActorProfile, error) {
			return nil, nil
		},
	}
	orgs := &stubOrganizationStore{
		deleteOrganizationFn: func(context.Context, string) error {
			return ErrNotFound
		},
	}
	s := newTestDirectory(t, orgs, profiles)
	if err := s.DeleteOrganization(context.Background(), "org-1"); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestDeleteOrganizationUnknownOrganization(t *testing.T) {
	orgs := &stubOrganizationStore{
		getOrganizationFn: func(context.Context, string) (Organization, error) {
			return Organization{}, ErrNotFound
		},
	}
	s := newTestDirectory(t, orgs, &stubProfileStore{})
	if err := s.DeleteOrganization(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRenameOrganization(t *testing.T) {
	orgs := &stubOrganizationStore{
		updateOrganizationFn: func(_ context.Context, id string, upd OrganizationUpdate) (Organization, error) {
			if upd.Name == nil || *upd.Name != "New Name" {
				t.Fatalf("update = %+v, want name only", upd)
			}
			if upd.LeaderID != nil {
				t.Fatal("rename must not touch the leader reference")
			}
			return Organization{ID: id, Name: *upd.Name}, nil
		},
	}
	s := newTestDirectory(t, orgs, &stubProfileStore{})

	org, err := s.RenameOrganization(context.Background(), "org-1", "  New Name ")
	if err != nil {
		t.Fatalf("RenameOrganization: %v", err)
	}
	if org.Name != "New Name" {
		t.Fatalf("org = %+v", org)
	}

	if _, err := s.RenameOrganization(context.Background(), "org-1", " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank name: err = %v, want ErrInvalidInput", err)
	}
}

func TestMembersOfRequiresID(t *testing.T) {
	s := newTestDirectory(t, &stubOrganizationStore{}, &stubProfileStore{})
	if _, err := s.MembersOf(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
