package access

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"fieldbook.org/internal/obs"
)

// DefaultScopeChunkSize is the largest id list the host document store
// accepts in a single query-by-ids call. Callers chunk larger scopes.
const DefaultScopeChunkSize = 30

// Scope is the set of actor identifiers whose records a query may include.
// It always contains the actor it was resolved for. A scope is a snapshot:
// it is not updated when profiles or grants change, so callers re-resolve
// after any mutation that could affect visibility.
type Scope map[string]struct{}

func NewScope(ids ...string) Scope {
	s := make(Scope, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Scope) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the scope members sorted, for deterministic queries and logs.
func (s Scope) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Chunk splits the scope into id lists of at most size elements, for stores
// that cap the length of a query-by-ids filter.
func (s Scope) Chunk(size int) [][]string {
	if size <= 0 {
		size = DefaultScopeChunkSize
	}
	all := s.IDs()
	var chunks [][]string
	for len(all) > size {
		chunks = append(chunks, all[:size])
		all = all[size:]
	}
	if len(all) > 0 {
		chunks = append(chunks, all)
	}
	return chunks
}

// Resolver is the single authority for data visibility: which owners an actor
// may query, and whether an actor may mutate a given owner's records.
//
// Role precedence is strict: an admin always gets the unrestricted scope and
// an org leader with an organization always gets the membership scope; the
// levels never blend. Every operation is a pure read against the upstream
// stores, so an abandoned call leaves no partial state behind.
type Resolver struct {
	profiles ProfileStore
	grants   GrantStore
}

func NewResolver(profiles ProfileStore, grants GrantStore) (*Resolver, error) {
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if grants == nil {
		return nil, fmt.Errorf("grant store is required")
	}
	return &Resolver{profiles: profiles, grants: grants}, nil
}

// ResolveScope computes the set of owner ids the actor may query.
//
// Upstream I/O failures are returned to the caller unmodified: defaulting to
// an empty scope would deny service on every store hiccup, and defaulting to
// a full scope would escalate privileges. Neither is acceptable.
func (r *Resolver) ResolveScope(ctx context.Context, actor ActorProfile) (Scope, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return nil, fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}

	switch {
	case actor.Role == RoleAdmin:
		all, err := r.profiles.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("enumerate profiles: %w", err)
		}
		scope := NewScope(actor.ID)
		for _, p := range all {
			scope[p.ID] = struct{}{}
		}
		obs.CountScopeResolution(string(RoleAdmin))
		return scope, nil

	case actor.Role == RoleOrgLeader && actor.OrganizationID != "":
		members, err := r.profiles.ListByOrganization(ctx, actor.OrganizationID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("enumerate members of %s: %w", actor.OrganizationID, err)
		}
		scope := NewScope(actor.ID)
		for _, m := range members {
			scope[m.ID] = struct{}{}
		}
		obs.CountScopeResolution(string(RoleOrgLeader))
		return scope, nil
	}

	if actor.Role == RoleOrgLeader {
		// Leader without an organization: tolerated inconsistency, degrade to
		// the grant-based scope instead of failing the request.
		obs.LogWarn("org_leader without organization, using grant scope", map[string]any{
			"actor_id": actor.ID,
		})
	}

	grants, err := r.grants.ApprovedGrantsTo(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("enumerate grants to %s: %w", actor.ID, err)
	}
	scope := NewScope(actor.ID)
	for _, g := range grants {
		if g.CanView {
			scope[g.FromUserID] = struct{}{}
		}
	}
	obs.CountScopeResolution(string(RoleUser))
	return scope, nil
}

// CanMutate reports whether the actor may update or delete records owned by
// targetOwnerID. Lookup misses fail closed; store I/O failures are errors.
func (r *Resolver) CanMutate(ctx context.Context, actor ActorProfile, targetOwnerID string) (bool, error) {
	targetOwnerID = strings.TrimSpace(targetOwnerID)
	if strings.TrimSpace(actor.ID) == "" || targetOwnerID == "" {
		return false, fmt.Errorf("%w: actor id and target owner id are required", ErrInvalidInput)
	}

	decision, err := r.canMutate(ctx, actor, targetOwnerID)
	if err != nil {
		return false, err
	}
	if decision {
		obs.CountMutationCheck("allow")
	} else {
		obs.CountMutationCheck("deny")
	}
	return decision, nil
}

func (r *Resolver) canMutate(ctx context.Context, actor ActorProfile, targetOwnerID string) (bool, error) {
	if actor.ID == targetOwnerID {
		return true, nil
	}
	if actor.Role == RoleAdmin {
		return true, nil
	}
	if actor.Role == RoleOrgLeader && actor.OrganizationID != "" {
		target, err := r.profiles.Get(ctx, targetOwnerID)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("target profile lookup: %w", err)
		}
		return target.OrganizationID == actor.OrganizationID, nil
	}

	g, err := r.grants.ApprovedGrantFrom(ctx, targetOwnerID, actor.ID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("grant lookup: %w", err)
	}
	return g.CanEdit, nil
}
