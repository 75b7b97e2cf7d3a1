package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fieldbook.org/internal/access"
)

var _ access.ProfileStore = (*Store)(nil)

const profileColumns = `id, email, display_name, role, organization_id, created_at, updated_at`

func (s *Store) CreateIfAbsent(ctx context.Context, p access.ActorProfile) (bool, error) {
	if s.db == nil {
		return false, access.ErrUnavailable
	}
	res, err := s.db.ExecContext(ctx, `
		insert into actor_profiles (id, email, display_name, role, organization_id, created_at, updated_at)
		values ($1, $2, $3, $4, nullif($5, ''), $6, $7)
		on conflict (id) do nothing
	`, p.ID, p.Email, p.DisplayName, string(p.Role), p.OrganizationID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Get(ctx context.Context, id string) (access.ActorProfile, error) {
	if s.db == nil {
		return access.ActorProfile{}, access.ErrUnavailable
	}
	row := s.db.QueryRowContext(ctx, `
		select `+profileColumns+`
		from actor_profiles
		where id = $1
	`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return access.ActorProfile{}, access.ErrNotFound
	}
	return p, err
}

func (s *Store) List(ctx context.Context) ([]access.ActorProfile, error) {
	return s.listProfiles(ctx, `
		select `+profileColumns+`
		from actor_profiles
		order by email
	`)
}

func (s *Store) ListByOrganization(ctx context.Context, orgID string) ([]access.ActorProfile, error) {
	return s.listProfiles(ctx, `
		select `+profileColumns+`
		from actor_profiles
		where organization_id = $1
		order by email
	`, orgID)
}

func (s *Store) Update(ctx context.Context, id string, upd access.ProfileUpdate) (access.ActorProfile, error) {
	if s.db == nil {
		return access.ActorProfile{}, access.ErrUnavailable
	}
	sets := []string{"updated_at = now()"}
	args := []any{id}
	if upd.Role != nil {
		args = append(args, string(*upd.Role))
		sets = append(sets, fmt.Sprintf("role = $%d", len(args)))
	}
	if upd.OrganizationID != nil {
		args = append(args, *upd.OrganizationID)
		sets = append(sets, fmt.Sprintf("organization_id = nullif($%d, '')", len(args)))
	}
	if upd.DisplayName != nil {
		args = append(args, *upd.DisplayName)
		sets = append(sets, fmt.Sprintf("display_name = $%d", len(args)))
	}
	row := s.db.QueryRowContext(ctx, `
		update actor_profiles
		set `+strings.Join(sets, ", ")+`
		where id = $1
		returning `+profileColumns+`
	`, args...)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return access.ActorProfile{}, access.ErrNotFound
	}
	return p, err
}

func (s *Store) listProfiles(ctx context.Context, query string, args ...any) ([]access.ActorProfile, error) {
	if s.db == nil {
		return nil, access.ErrUnavailable
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []access.ActorProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (access.ActorProfile, error) {
	var (
		p     access.ActorProfile
		role  string
		disp  sql.NullString
		orgID sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Email, &disp, &role, &orgID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return access.ActorProfile{}, err
	}
	p.Role = access.Role(role)
	if disp.Valid {
		p.DisplayName = disp.String
	}
	if orgID.Valid {
		p.OrganizationID = orgID.String
	}
	return p, nil
}
