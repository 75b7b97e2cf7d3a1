// Package records is the record-query facade: every listing goes through a
// resolved visibility scope and every mutation through a CanMutate check
// before the store is touched. It exists so that no screen ever queries the
// store with an unscoped filter.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldbook.org/internal/access"
	"fieldbook.org/internal/ids"
)

// Store persists records keyed by owner. ListFieldsByOwners and
// ListWorkByOwners accept at most access.DefaultScopeChunkSize ids per call;
// the service chunks larger scopes.
type Store interface {
	ListFieldsByOwners(ctx context.Context, ownerIDs []string) ([]Field, error)
	GetField(ctx context.Context, id string) (Field, error)
	CreateField(ctx context.Context, f Field) error
	UpdateField(ctx context.Context, f Field) error
	DeleteField(ctx context.Context, id string) error

	ListWorkByOwners(ctx context.Context, ownerIDs []string) ([]WorkRecord, error)
	GetWork(ctx context.Context, id string) (WorkRecord, error)
	CreateWork(ctx context.Context, w WorkRecord) error
	DeleteWork(ctx context.Context, id string) error
}

// Service gates every record operation on the visibility resolver.
type Service struct {
	store    Store
	resolver *access.Resolver
	now      func() time.Time
}

func NewService(store Store, resolver *access.Resolver) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	return &Service{store: store, resolver: resolver, now: time.Now}, nil
}

// ListFields returns every field owned by any actor in the caller's scope.
func (s *Service) ListFields(ctx context.Context, actor access.ActorProfile) ([]Field, error) {
	scope, err := s.resolver.ResolveScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	var out []Field
	for _, owners := range scope.Chunk(access.DefaultScopeChunkSize) {
		part, err := s.store.ListFieldsByOwners(ctx, owners)
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}

// CreateField records a new field owned by the acting actor.
func (s *Service) CreateField(ctx context.Context, actor access.ActorProfile, in FieldInput) (Field, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Field{}, fmt.Errorf("%w: field name is required", access.ErrInvalidInput)
	}
	if in.AreaHa < 0 {
		return Field{}, fmt.Errorf("%w: area must not be negative", access.ErrInvalidInput)
	}
	f := Field{
		ID:        ids.New(),
		OwnerID:   actor.ID,
		Name:      in.Name,
		AreaHa:    in.AreaHa,
		Crop:      strings.TrimSpace(in.Crop),
		Status:    strings.TrimSpace(in.Status),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateField(ctx, f); err != nil {
		return Field{}, err
	}
	return f, nil
}

// UpdateField replaces the caller-editable part of a field. A denied mutation
// is reported as not-found, so a caller cannot distinguish "record absent"
// from "record belongs to someone you may not touch".
func (s *Service) UpdateField(ctx context.Context, actor access.ActorProfile, fieldID string, in FieldInput) (Field, error) {
	f, err := s.store.GetField(ctx, fieldID)
	if err != nil {
		return Field{}, err
	}
	ok, err := s.resolver.CanMutate(ctx, actor, f.OwnerID)
	if err != nil {
		return Field{}, err
	}
	if !ok {
		return Field{}, access.ErrNotFound
	}
	f.Name = strings.TrimSpace(in.Name)
	f.AreaHa = in.AreaHa
	f.Crop = strings.TrimSpace(in.Crop)
	f.Status = strings.TrimSpace(in.Status)
	if f.Name == "" {
		return Field{}, fmt.Errorf("%w: field name is required", access.ErrInvalidInput)
	}
	if err := s.store.UpdateField(ctx, f); err != nil {
		return Field{}, err
	}
	return f, nil
}

// DeleteField removes a field, subject to the same gate as UpdateField.
func (s *Service) DeleteField(ctx context.Context, actor access.ActorProfile, fieldID string) error {
	f, err := s.store.GetField(ctx, fieldID)
	if err != nil {
		return err
	}
	ok, err := s.resolver.CanMutate(ctx, actor, f.OwnerID)
	if err != nil {
		return err
	}
	if !ok {
		return access.ErrNotFound
	}
	return s.store.DeleteField(ctx, fieldID)
}

// ListWork returns the work log visible to the actor.
func (s *Service) ListWork(ctx context.Context, actor access.ActorProfile) ([]WorkRecord, error) {
	scope, err := s.resolver.ResolveScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	var out []WorkRecord
	for _, owners := range scope.Chunk(access.DefaultScopeChunkSize) {
		part, err := s.store.ListWorkByOwners(ctx, owners)
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}

// CreateWork appends a work record owned by the acting actor.
func (s *Service) CreateWork(ctx context.Context, actor access.ActorProfile, in WorkRecordInput) (WorkRecord, error) {
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return WorkRecord{}, fmt.Errorf("%w: date must be YYYY-MM-DD", access.ErrInvalidInput)
	}
	if strings.TrimSpace(in.WorkType) == "" {
		return WorkRecord{}, fmt.Errorf("%w: work type is required", access.ErrInvalidInput)
	}
	w := WorkRecord{
		ID:         ids.New(),
		OwnerID:    actor.ID,
		Date:       in.Date,
		FieldID:    strings.TrimSpace(in.FieldID),
		FieldName:  strings.TrimSpace(in.FieldName),
		Crop:       strings.TrimSpace(in.Crop),
		WorkType:   strings.TrimSpace(in.WorkType),
		WorkDetail: strings.TrimSpace(in.WorkDetail),
		Worker:     strings.TrimSpace(in.Worker),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.CreateWork(ctx, w); err != nil {
		return WorkRecord{}, err
	}
	return w, nil
}

// DeleteWork removes a work record, gated on CanMutate against its owner.
func (s *Service) DeleteWork(ctx context.Context, actor access.ActorProfile, workID string) error {
	w, err := s.store.GetWork(ctx, workID)
	if err != nil {
		return err
	}
	ok, err := s.resolver.CanMutate(ctx, actor, w.OwnerID)
	if err != nil {
		return err
	}
	if !ok {
		return access.ErrNotFound
	}
	if err := s.store.DeleteWork(ctx, workID); err != nil && !errors.Is(err, access.ErrNotFound) {
		return err
	}
	return nil
}
