package postgres

import (
	"context"
	"database/sql"

	"filevault/internal/model"
	"filevault/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, user_id, name, type, is_public, parent_id, storage_key, created_at`

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.File) (*model.File, error) {
	const q = `
		INSERT INTO files (id, user_id, name, type, is_public, parent_id, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.UserID,
		f.Name,
		f.Type,
		f.IsPublic,
		f.ParentID,
		f.StorageKey,
		f.CreatedAt,
	)
	return scanFile(row)
}

// FindByID fetches a single file record by its ID.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE id = $1
	`
	return scanFile(r.db.QueryRowContext(ctx, q, id))
}

// ListChildren returns records under parentID visible to viewerID
// (owned or public), ordered by insertion order via the seq column.
func (r *FilePostgres) ListChildren(ctx context.Context, parentID, viewerID string, pq repository.PageQuery) ([]model.File, error) {
	const q = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE parent_id = $1 AND (user_id = $2 OR is_public)
		ORDER BY seq
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, q, parentID, viewerID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.File, 0)
	for rows.Next() {
		var f model.File
		var storageKey sql.NullString
		if err := rows.Scan(
			&f.ID,
			&f.UserID,
			&f.Name,
			&f.Type,
			&f.IsPublic,
			&f.ParentID,
			&storageKey,
			&f.CreatedAt,
		); err != nil {
			return nil, err
		}
		f.StorageKey = storageKey.String
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetVisibility updates the is_public flag in a single statement and returns
// the updated record. Missing rows surface as sql.ErrNoRows.
func (r *FilePostgres) SetVisibility(ctx context.Context, id string, public bool) (*model.File, error) {
	const q = `
		UPDATE files
		SET is_public = $2
		WHERE id = $1
		RETURNING ` + fileColumns
	return scanFile(r.db.QueryRowContext(ctx, q, id, public))
}

// CountAll returns the total number of file rows.
func (r *FilePostgres) CountAll(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM files`
	var total int
	if err := r.db.QueryRowContext(ctx, q).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func scanFile(row *sql.Row) (*model.File, error) {
	var f model.File
	var storageKey sql.NullString
	if err := row.Scan(
		&f.ID,
		&f.UserID,
		&f.Name,
		&f.Type,
		&f.IsPublic,
		&f.ParentID,
		&storageKey,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	f.StorageKey = storageKey.String
	return &f, nil
}
