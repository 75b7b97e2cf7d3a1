package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldbook.org/internal/ids"
)

// GrantService owns the permission ledger: peer-to-peer grants between a data
// owner (fromUserID) and a recipient (toUserID).
//
// Status transitions: pending -> approved, pending -> rejected, and
// approved -> revoked. rejected and revoked are terminal. Resolving a grant
// that is not pending (or revoking one that is not approved) is a conflict,
// never a silent no-op.
type GrantService struct {
	grants   GrantStore
	profiles ProfileStore
	now      func() time.Time
}

func NewGrantService(grants GrantStore, profiles ProfileStore) (*GrantService, error) {
	if grants == nil {
		return nil, fmt.Errorf("grant store is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	return &GrantService{grants: grants, profiles: profiles, now: time.Now}, nil
}

// RequestGrant records a pending request by toUserID for access to
// fromUserID's records. At least one capability bit must be requested.
func (s *GrantService) RequestGrant(ctx context.Context, fromUserID, toUserID string, canView, canEdit bool) (PermissionGrant, error) {
	fromUserID = strings.TrimSpace(fromUserID)
	toUserID = strings.TrimSpace(toUserID)
	if fromUserID == "" || toUserID == "" {
		return PermissionGrant{}, fmt.Errorf("%w: from_user_id and to_user_id are required", ErrInvalidInput)
	}
	if fromUserID == toUserID {
		return PermissionGrant{}, fmt.Errorf("%w: cannot request a grant from yourself", ErrInvalidInput)
	}
	if !canView && !canEdit {
		return PermissionGrant{}, fmt.Errorf("%w: at least one of can_view and can_edit is required", ErrInvalidInput)
	}
	if _, err := s.profiles.Get(ctx, fromUserID); err != nil {
		return PermissionGrant{}, fmt.Errorf("owner lookup: %w", err)
	}

	g := PermissionGrant{
		ID:          ids.New(),
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		Status:      GrantPending,
		CanView:     canView,
		CanEdit:     canEdit,
		RequestedAt: s.now().UTC(),
	}
	if err := s.grants.CreateGrant(ctx, g); err != nil {
		return PermissionGrant{}, err
	}
	return g, nil
}

// Approve transitions a pending grant to approved. Only the data owner may
// resolve a grant addressed to their records.
func (s *GrantService) Approve(ctx context.Context, grantID, ownerID string) (PermissionGrant, error) {
	return s.resolve(ctx, grantID, ownerID, GrantApproved)
}

// Reject transitions a pending grant to rejected.
func (s *GrantService) Reject(ctx context.Context, grantID, ownerID string) (PermissionGrant, error) {
	return s.resolve(ctx, grantID, ownerID, GrantRejected)
}

// Revoke withdraws an approved grant. Only the data owner may revoke.
func (s *GrantService) Revoke(ctx context.Context, grantID, ownerID string) (PermissionGrant, error) {
	grantID = strings.TrimSpace(grantID)
	ownerID = strings.TrimSpace(ownerID)
	if grantID == "" || ownerID == "" {
		return PermissionGrant{}, fmt.Errorf("%w: grant id and owner id are required", ErrInvalidInput)
	}
	g, err := s.grants.GetGrant(ctx, grantID)
	if err != nil {
		return PermissionGrant{}, err
	}
	if g.FromUserID != ownerID {
		return PermissionGrant{}, fmt.Errorf("%w: only the data owner may revoke a grant", ErrInvalidInput)
	}
	if g.Status != GrantApproved {
		return PermissionGrant{}, fmt.Errorf("%w: grant %s is %s, only approved grants can be revoked", ErrConflict, grantID, g.Status)
	}
	return s.grants.SetGrantStatus(ctx, grantID, GrantRevoked)
}

func (s *GrantService) resolve(ctx context.Context, grantID, ownerID string, to GrantStatus) (PermissionGrant, error) {
	grantID = strings.TrimSpace(grantID)
	ownerID = strings.TrimSpace(ownerID)
	if grantID == "" || ownerID == "" {
		return PermissionGrant{}, fmt.Errorf("%w: grant id and owner id are required", ErrInvalidInput)
	}
	g, err := s.grants.GetGrant(ctx, grantID)
	if err != nil {
		return PermissionGrant{}, err
	}
	if g.FromUserID != ownerID {
		return PermissionGrant{}, fmt.Errorf("%w: only the data owner may resolve a grant", ErrInvalidInput)
	}
	if g.Status != GrantPending {
		return PermissionGrant{}, fmt.Errorf("%w: grant %s already %s", ErrConflict, grantID, g.Status)
	}
	return s.grants.SetGrantStatus(ctx, grantID, to)
}

// ApprovedGrantsTo lists every approved grant whose recipient is actorID.
// This is the query ResolveScope depends on for plain users.
func (s *GrantService) ApprovedGrantsTo(ctx context.Context, actorID string) ([]PermissionGrant, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}
	return s.grants.ApprovedGrantsTo(ctx, actorID)
}

// ApprovedGrantFrom returns the approved grant ownerID -> actorID, or nil when
// no such grant exists. Callers check the capability bit they need; absence of
// a grant is a normal answer, not an error.
func (s *GrantService) ApprovedGrantFrom(ctx context.Context, ownerID, actorID string) (*PermissionGrant, error) {
	ownerID = strings.TrimSpace(ownerID)
	actorID = strings.TrimSpace(actorID)
	if ownerID == "" || actorID == "" {
		return nil, fmt.Errorf("%w: owner id and actor id are required", ErrInvalidInput)
	}
	g, err := s.grants.ApprovedGrantFrom(ctx, ownerID, actorID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListIncoming lists grants where the actor is the recipient, any status.
func (s *GrantService) ListIncoming(ctx context.Context, actorID string) ([]PermissionGrant, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}
	return s.grants.ListGrantsTo(ctx, actorID)
}

// ListOutgoing lists grants where the actor is the data owner, any status.
func (s *GrantService) ListOutgoing(ctx context.Context, actorID string) ([]PermissionGrant, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}
	return s.grants.ListGrantsFrom(ctx, actorID)
}
