package access

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestProfiles(t *testing.T, profiles ProfileStore, orgs OrganizationStore) *ProfileService {
	t.Helper()
	s, err := NewProfileService(profiles, orgs)
	if err != nil {
		t.Fatalf("NewProfileService: %v", err)
	}
	return s
}

func TestEnsureProfileCreatesDefaultOnFirstSight(t *testing.T) {
	var inserted ActorProfile
	profiles := &stubProfileStore{
		createIfAbsentFn: func(_ context.Context, p ActorProfile) (bool, error) {
			inserted = p
			return true, nil
		},
		getFn: func(_ context.Context, id string) (ActorProfile, error) {
			return inserted, nil
		},
	}
	s := newTestProfiles(t, profiles, &stubOrganizationStore{})

	p, err := s.EnsureProfile(context.Background(), "actor-1", "Jordan.Kim@example.com")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if p.Role != RoleUser {
		t.Fatalf("role = %s, want user", p.Role)
	}
	if p.Email != "jordan.kim@example.com" {
		t.Fatalf("email = %q, want lowercased", p.Email)
	}
	if p.DisplayName != "jordan.kim" {
		t.Fatalf("display name = %q, want local part of email", p.DisplayName)
	}
	if p.OrganizationID != "" {
		t.Fatalf("new profile has organization %q", p.OrganizationID)
	}
}

func TestEnsureProfileNeverDowngradesExistingRole(t *testing.T) {
	stored := ActorProfile{ID: "actor-1", Email: "a@example.com", Role: RoleAdmin, OrganizationID: "org-1"}
	profiles := &stubProfileStore{
		createIfAbsentFn: func(context.Context, ActorProfile) (bool, error) {
			// Insert skipped: the profile already exists.
			return false, nil
		},
		getFn: func(context.Context, string) (ActorProfile, error) {
			return stored, nil
		},
	}
	s := newTestProfiles(t, profiles, &stubOrganizationStore{})

	p, err := s.EnsureProfile(context.Background(), "actor-1", "a@example.com")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if p.Role != RoleAdmin || p.OrganizationID != "org-1" {
		t.Fatalf("stored profile changed: %+v", p)
	}
}

func TestEnsureProfileRequiresActorID(t *testing.T) {
	s := newTestProfiles(t, &stubProfileStore{}, &stubOrganizationStore{})
	if _, err := s.EnsureProfile(context.Background(), "  ", "a@example.com"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSetRoleAndOrganizationWritesLeaderReference(t *testing.T) {
	var orgUpdate OrganizationUpdate
	var orgUpdated string
	orgs := &stubOrganizationStore{
		updateOrganizationFn: func(_ context.Context, id string, upd OrganizationUpdate) (Organization, error) {
			orgUpdated = id
			orgUpdate = upd
			return Organization{ID: id}, nil
		},
	}
	profiles := &stubProfileStore{
		updateFn: func(_ context.Context, id string, upd ProfileUpdate) (ActorProfile, error) {
			return ActorProfile{ID: id, Role: *upd.Role, OrganizationID: *upd.OrganizationID}, nil
		},
	}
	s := newTestProfiles(t, profiles, orgs)

	p, err := s.SetRoleAndOrganization(context.Background(), "actor-1", "org_leader", "org-1")
	if err != nil {
		t.Fatalf("SetRoleAndOrganization: %v", err)
	}
	if p.Role != RoleOrgLeader || p.OrganizationID != "org-1" {
		t.Fatalf("profile = %+v", p)
	}
	if orgUpdated != "org-1" || orgUpdate.LeaderID == nil || *orgUpdate.LeaderID != "actor-1" {
		t.Fatalf("leader reference write = %q %+v", orgUpdated, orgUpdate)
	}
}

func TestSetRoleAndOrganizationSkipsLeaderWriteForPlainRoles(t *testing.T) {
	orgs := &stubOrganizationStore{
		updateOrganizationFn: func(context.Context, string, OrganizationUpdate) (Organization, error) {
			t.Fatal("non-leader role change must not touch the organization")
			return Organization{}, nil
		},
	}
	s := newTestProfiles(t, &stubProfileStore{}, orgs)
	if _, err := s.SetRoleAndOrganization(context.Background(), "actor-1", "user", "org-1"); err != nil {
		t.Fatalf("SetRoleAndOrganization: %v", err)
	}
}

func TestSetRoleAndOrganizationSurfacesFailedLeaderWrite(t *testing.T) {
	boom := errors.New("organization write failed")
	orgs := &stubOrganizationStore{
		updateOrganizationFn: func(context.Context, string, OrganizationUpdate) (Organization, error) {
			return Organization{}, boom
		},
	}
	profiles := &stubProfileStore{
		updateFn: func(_ context.Context, id string, upd ProfileUpdate) (ActorProfile, error) {
			return ActorProfile{ID: id, Role: *upd.Role, OrganizationID: *upd.OrganizationID}, nil
		},
	}
	s := newTestProfiles(t, profiles, orgs)

	p, err := s.SetRoleAndOrganization(context.Background(), "actor-1", "org_leader", "org-1")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	// The profile write succeeded; both facts reach the caller.
	if p.Role != RoleOrgLeader {
		t.Fatalf("updated profile not returned alongside the error: %+v", p)
	}
	if !strings.Contains(err.Error(), "leader reference") {
		t.Fatalf("err %q does not name the partial write", err)
	}
}

func TestSetRoleAndOrganizationRejectsUnknownRole(t *testing.T) {
	s := newTestProfiles(t, &stubProfileStore{}, &stubOrganizationStore{})
	if _, err := s.SetRoleAndOrganization(context.Background(), "actor-1", "superuser", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSetRoleAndOrganizationRejectsUnknownOrganization(t *testing.T) {
	orgs := &stubOrganizationStore{
		getOrganizationFn: func(context.Context, string) (Organization, error) {
			return Organization{}, ErrNotFound
		},
	}
	profiles := &stubProfileStore{
		updateFn: func(context.Context, string, ProfileUpdate) (ActorProfile, error) {
			t.Fatal("profile must not change when the organization lookup fails")
			return ActorProfile{}, nil
		},
	}
	s := newTestProfiles(t, profiles, orgs)
	if _, err := s.SetRoleAndOrganization(context.Background(), "actor-1", "org_leader", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{" ORG_LEADER ", RoleOrgLeader, true},
		{"User", RoleUser, true},
		{"owner", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseRole(%q) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}
