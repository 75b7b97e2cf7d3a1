package pg

import (
	"context"
	"database/sql"
	"errors"

	"fieldbook.org/internal/access"
	"fieldbook.org/internal/records"
)

var _ records.Store = (*Store)(nil)

const fieldColumns = `id, owner_id, name, area_ha, crop, status, created_at`
const workColumns = `id, owner_id, date, field_id, field_name, crop, work_type, work_detail, worker, created_at`

func (s *Store) ListFieldsByOwners(ctx context.Context, ownerIDs []string) ([]records.Field, error) {
	if s.db == nil {
		return nil, access.ErrUnavailable
	}
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+fieldColumns+`
		from fields
		where owner_id = any($1)
		order by name
	`, ownerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []records.Field
	for rows.Next() {
		var f records.Field
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name, &f.AreaHa, &f.Crop, &f.Status, &f.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetField(ctx context.Context, id string) (records.Field, error) {
	if s.db == nil {
		return records.Field{}, access.ErrUnavailable
	}
	var f records.Field
	err := s.db.QueryRowContext(ctx, `
		select `+fieldColumns+`
		from fields
		where id = $1
	`, id).Scan(&f.ID, &f.OwnerID, &f.Name, &f.AreaHa, &f.Crop, &f.Status, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return records.Field{}, access.ErrNotFound
	}
	return f, err
}

func (s *Store) CreateField(ctx context.Context, f records.Field) error {
	if s.db == nil {
		return access.ErrUnavailable
	}
	_, err := s.db.ExecContext(ctx, `
		insert into fields (id, owner_id, name, area_ha, crop, status, created_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, f.ID, f.OwnerID, f.Name, f.AreaHa, f.Crop, f.Status, f.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return access.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) UpdateField(ctx context.Context, f records.Field) error {
	if s.db == nil {
		return access.ErrUnavailable
	}
	res, err := s.db.ExecContext(ctx, `
		update fields
		set name = $2, area_ha = $3, crop = $4, status = $5
		where id = $1
	`, f.ID, f.Name, f.AreaHa, f.Crop, f.Status)
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

func (s *Store) DeleteField(ctx context.Context, id string) error {
	if s.db == nil {
		return access.ErrUnavailable
	}
	_, err := s.db.ExecContext(ctx, `delete from fields where id = $1`, id)
	return err
}

func (s *Store) ListWorkByOwners(ctx context.Context, ownerIDs []string) ([]records.WorkRecord, error) {
	if s.db == nil {
		return nil, access.ErrUnavailable
	}
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+workColumns+`
		from work_records
		where owner_id = any($1)
		order by date desc, created_at desc
	`, ownerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []records.WorkRecord
	for rows.Next() {
		var w records.WorkRecord
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.Date, &w.FieldID, &w.FieldName, &w.Crop, &w.WorkType, &w.WorkDetail, &w.Worker, &w.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetWork(ctx context.Context, id string) (records.WorkRecord, error) {
	if s.db == nil {
		return records.WorkRecord{}, access.ErrUnavailable
	}
	var w records.WorkRecord
	err := s.db.QueryRowContext(ctx, `
		select `+workColumns+`
		from work_records
		where id = $1
	`, id).Scan(&w.ID, &w.OwnerID, &w.Date, &w.FieldID, &w.FieldName, &w.Crop, &w.WorkType, &w.WorkDetail, &w.Worker, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return records.WorkRecord{}, access.ErrNotFound
	}
	return w, err
}

func (s *Store) CreateWork(ctx context.Context, w records.WorkRecord) error {
	if s.db == nil {
		return access.ErrUnavailable
	}
	_, err := s.db.ExecContext(ctx, `
		insert into work_records (id, owner_id, date, field_id, field_name, crop, work_type, work_detail, worker, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, w.ID, w.OwnerID, w.Date, w.FieldID, w.FieldName, w.Crop, w.WorkType, w.WorkDetail, w.Worker, w.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return access.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) DeleteWork(ctx context.Context, id string) error {
	if s.db == nil {
		return access.ErrUnavailable
	}
	_, err := s.db.ExecContext(ctx, `delete from work_records where id = $1`, id)
	return err
}
