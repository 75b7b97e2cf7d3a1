package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fieldbook.org/internal/access"
)

var _ access.OrganizationStore = (*Store)(nil)

const orgColumns = `id, name, leader_id, created_at, updated_at`

func (s *Store) CreateOrganization(ctx context.Context, org access.Organization) error {
	if s.db == nil {
		return access.ErrUnavailable
	}
	_, err := s.db.ExecContext(ctx, `
		insert into organizations (id, name, leader_id, created_at, updated_at)
		values ($1, $2, nullif($3, ''), $4, $5)
	`, org.ID, org.Name, org.LeaderID, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return access.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetOrganization(ctx context.Context, id string) (access.Organization, error) {
	if s.db == nil {
		return access.Organization{}, access.ErrUnavailable
	}
	row := s.db.QueryRowContext(ctx, `
		select `+orgColumns+`
		from organizations
		where id = $1
	`, id)
	org, err := scanOrganization(row)
	if errors.Is(err, sql.ErrNoRows) {
		return access.Organization{}, access.ErrNotFound
	}
	return org, err
}

func (s *Store) ListOrganizations(ctx context.Context) ([]access.Organization, error) {
	if s.db == nil {
		return nil, access.ErrUnavailable
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+orgColumns+`
		from organizations
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []access.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, org)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateOrganization(ctx context.Context, id string, upd access.OrganizationUpdate) (access.Organization, error) {
	if s.db == nil {
		return access.Organization{}, access.ErrUnavailable
	}
	sets := []string{"updated_at = now()"}
	args := []any{id}
	if upd.Name != nil {
		args = append(args, *upd.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.LeaderID != nil {
		args = append(args, *upd.LeaderID)
		sets = append(sets, fmt.Sprintf("leader_id = nullif($%d, '')", len(args)))
	}
	row := s.db.QueryRowContext(ctx, `
		update organizations
		set `+strings.Join(sets, ", ")+`
		where id = $1
		returning `+orgColumns+`
	`, args...)
	org, err := scanOrganization(row)
	if errors.Is(err, sql.ErrNoRows) {
		return access.Organization{}, access.ErrNotFound
	}
	return org, err
}

func (s *Store) DeleteOrganization(ctx context.Context, id string) error {
	if s.db == nil {
		return access.ErrUnavailable
	}
	res, err := s.db.ExecContext(ctx, `delete from organizations where id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return access.ErrNotFound
	}
	return nil
}

func scanOrganization(row rowScanner) (access.Organization, error) {
	var (
		org      access.Organization
		leaderID sql.NullString
	)
	if err := row.Scan(&org.ID, &org.Name, &leaderID, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return access.Organization{}, err
	}
	if leaderID.Valid {
		org.LeaderID = leaderID.String
	}
	return org, nil
}
