package access

import "context"

type stubProfileStore struct {
	createIfAbsentFn     func(context.Context, ActorProfile) (bool, error)
	getFn                func(context.Context, string) (ActorProfile, error)
	listFn               func(context.Context) ([]ActorProfile, error)
	listByOrganizationFn func(context.Context, string) ([]ActorProfile, error)
	updateFn             func(context.Context, string, ProfileUpdate) (ActorProfile, error)
}

func (s *stubProfileStore) CreateIfAbsent(ctx context.Context, p ActorProfile) (bool, error) {
	if s.createIfAbsentFn != nil {
		return s.createIfAbsentFn(ctx, p)
	}
	return true, nil
}

func (s *stubProfileStore) Get(ctx context.Context, id string) (ActorProfile, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return ActorProfile{ID: id, Role: RoleUser}, nil
}

func (s *stubProfileStore) List(ctx context.Context) ([]ActorProfile, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubProfileStore) ListByOrganization(ctx context.Context, orgID string) ([]ActorProfile, error) {
	if s.listByOrganizationFn != nil {
		return s.listByOrganizationFn(ctx, orgID)
	}
	return nil, nil
}

func (s *stubProfileStore) Update(ctx context.Context, id string, upd ProfileUpdate) (ActorProfile, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, upd)
	}
	return ActorProfile{ID: id}, nil
}

type stubOrganizationStore struct {
	createOrganizationFn func(context.Context, Organization) error
	getOrganizationFn    func(context.Context, string) (Organization, error)
	listOrganizationsFn  func(context.Context) ([]Organization, error)
	updateOrganizationFn func(context.Context, string, OrganizationUpdate) (Organization, error)
	deleteOrganizationFn func(context.Context, string) error
}

func (s *stubOrganizationStore) CreateOrganization(ctx context.Context, org Organization) error {
	if s.createOrganizationFn != nil {
		return s.createOrganizationFn(ctx, org)
	}
	return nil
}

func (s *stubOrganizationStore) GetOrganization(ctx context.Context, id string) (Organization, error) {
	if s.getOrganizationFn != nil {
		return s.getOrganizationFn(ctx, id)
	}
	return Organization{ID: id}, nil
}

func (s *stubOrganizationStore) ListOrganizations(ctx context.Context) ([]Organization, error) {
	if s.listOrganizationsFn != nil {
		return s.listOrganizationsFn(ctx)
	}
	return nil, nil
}

func (s *stubOrganizationStore) UpdateOrganization(ctx context.Context, id string, upd OrganizationUpdate) (Organization, error) {
	if s.updateOrganizationFn != nil {
		return s.updateOrganizationFn(ctx, id, upd)
	}
	return Organization{ID: id}, nil
}

func (s *stubOrganizationStore) DeleteOrganization(ctx context.Context, id string) error {
	if s.deleteOrganizationFn != nil {
		return s.deleteOrganizationFn(ctx, id)
	}
	return nil
}

type stubGrantStore struct {
	createGrantFn       func(context.Context, PermissionGrant) error
	getGrantFn          func(context.Context, string) (PermissionGrant, error)
	setGrantStatusFn    func(context.Context, string, GrantStatus) (PermissionGrant, error)
	approvedGrantsToFn  func(context.Context, string) ([]PermissionGrant, error)
	approvedGrantFromFn func(context.Context, string, string) (PermissionGrant, error)
	listGrantsFromFn    func(context.Context, string) ([]PermissionGrant, error)
	listGrantsToFn      func(context.Context, string) ([]PermissionGrant, error)
}

func (s *stubGrantStore) CreateGrant(ctx context.Context, g PermissionGrant) error {
	if s.createGrantFn != nil {
		return s.createGrantFn(ctx, g)
	}
	return nil
}

func (s *stubGrantStore) GetGrant(ctx context.Context, id string) (PermissionGrant, error) {
	if s.getGrantFn != nil {
		return s.getGrantFn(ctx, id)
	}
	return PermissionGrant{ID: id}, nil
}

func (s *stubGrantStore) SetGrantStatus(ctx context.Context, id string, status GrantStatus) (PermissionGrant, error) {
	if s.setGrantStatusFn != nil {
		return s.setGrantStatusFn(ctx, id, status)
	}
	return PermissionGrant{ID: id, Status: status}, nil
}

func (s *stubGrantStore) ApprovedGrantsTo(ctx context.Context, actorID string) ([]PermissionGrant, error) {
	if s.approvedGrantsToFn != nil {
		return s.approvedGrantsToFn(ctx, actorID)
	}
	return nil, nil
}

func (s *stubGrantStore) ApprovedGrantFrom(ctx context.Context, ownerID, actorID string) (PermissionGrant, error) {
	if s.approvedGrantFromFn != nil {
		return s.approvedGrantFromFn(ctx, ownerID, actorID)
	}
	return PermissionGrant{}, ErrNotFound
}

func (s *stubGrantStore) ListGrantsFrom(ctx context.Context, ownerID string) ([]PermissionGrant, error) {
	if s.listGrantsFromFn != nil {
		return s.listGrantsFromFn(ctx, ownerID)
	}
	return nil, nil
}

func (s *stubGrantStore) ListGrantsTo(ctx context.Context, actorID string) ([]PermissionGrant, error) {
	if s.listGrantsToFn != nil {
		return s.listGrantsToFn(ctx, actorID)
	}
	return nil, nil
}
