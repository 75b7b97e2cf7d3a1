package pg

import (
	"context"
	"database/sql"
	"errors"

	"fieldbook.org/internal/access"
)

var _ access.GrantStore = (*Store)(nil)

const grantColumns = `id, from_user_id, to_user_id, status, can_view, can_edit, requested_at, approved_at`

func (s *Store) CreateGrant(ctx context.Context, g access.PermissionGrant) error {
	if s.db == nil {
		return access.ErrUnavailable
	}
	_, err := s.db.ExecContext(ctx, `
		insert into permission_grants (id, from_user_id, to_user_id, status, can_view, can_edit, requested_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, g.ID, g.FromUserID, g.ToUserID, string(g.Status), g.CanView, g.CanEdit, g.RequestedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return access.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, id string) (access.PermissionGrant, error) {
	if s.db == nil {
		return access.PermissionGrant{}, access.ErrUnavailable
	}
	row := s.db.QueryRowContext(ctx, `
		select `+grantColumns+`
		from permission_grants
		where id = $1
	`, id)
	g, err := scanGrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return access.PermissionGrant{}, access.ErrNotFound
	}
	return g, err
}

func (s *Store) SetGrantStatus(ctx context.Context, id string, status access.GrantStatus) (access.PermissionGrant, error) {
	if s.db == nil {
		return access.PermissionGrant{}, access.ErrUnavailable
	}
	row := s.db.QueryRowContext(ctx, `
		update permission_grants
		set status = $2,
		    approved_at = case when $2 = 'approved' then now() else approved_at end
		where id = $1
		returning `+grantColumns+`
	`, id, string(status))
	g, err := scanGrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return access.PermissionGrant{}, access.ErrNotFound
	}
	return g, err
}

func (s *Store) ApprovedGrantsTo(ctx context.Context, actorID string) ([]access.PermissionGrant, error) {
	return s.listGrants(ctx, `
		select `+grantColumns+`
		from permission_grants
		where to_user_id = $1 and status = 'approved'
		order by requested_at
	`, actorID)
}

func (s *Store) ApprovedGrantFrom(ctx context.Context, ownerID, actorID string) (access.PermissionGrant, error) {
	if s.db == nil {
		return access.PermissionGrant{}, access.ErrUnavailable
	}
	row := s.db.QueryRowContext(ctx, `
		select `+grantColumns+`
		from permission_grants
		where from_user_id = $1 and to_user_id = $2 and status = 'approved'
		order by requested_at desc
		limit 1
	`, ownerID, actorID)
	g, err := scanGrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return access.PermissionGrant{}, access.ErrNotFound
	}
	return g, err
}

func (s *Store) ListGrantsFrom(ctx context.Context, ownerID string) ([]access.PermissionGrant, error) {
	return s.listGrants(ctx, `
		select `+grantColumns+`
		from permission_grants
		where from_user_id = $1
		order by requested_at desc
	`, ownerID)
}

func (s *Store) ListGrantsTo(ctx context.Context, actorID string) ([]access.PermissionGrant, error) {
	return s.listGrants(ctx, `
		select `+grantColumns+`
		from permission_grants
		where to_user_id = $1
		order by requested_at desc
	`, actorID)
}

func (s *Store) listGrants(ctx context.Context, query string, args ...any) ([]access.PermissionGrant, error) {
	if s.db == nil {
		return nil, access.ErrUnavailable
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []access.PermissionGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanGrant(row rowScanner) (access.PermissionGrant, error) {
	var (
		g        access.PermissionGrant
		status   string
		approved sql.NullTime
	)
	if err := row.Scan(&g.ID, &g.FromUserID, &g.ToUserID, &status, &g.CanView, &g.CanEdit, &g.RequestedAt, &approved); err != nil {
		return access.PermissionGrant{}, err
	}
	g.Status = access.GrantStatus(status)
	if approved.Valid {
		t := approved.Time
		g.ApprovedAt = &t
	}
	return g, nil
}
