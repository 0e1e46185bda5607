package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ListOptions controls pagination, filtering and ordering of analysis
// listings. Zero values mean "no filter".
type ListOptions struct {
	Page      int
	Limit     int
	Search    string
	MinScore  *int
	MaxScore  *int
	UserID    *int64 // admin listings may filter by owner
	SortBy    string // created_at | score | filename | user_id
	SortOrder string // asc | desc
}

// sanitize clamps pagination and whitelists sort columns: ORDER BY cannot
// be parameterized, so anything unknown falls back to created_at desc.
func (o *ListOptions) sanitize(maxLimit int, allowedSort map[string]bool) {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 || o.Limit > maxLimit {
		o.Limit = maxLimit
	}
	if !allowedSort[o.SortBy] {
		o.SortBy = "created_at"
	}
	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		o.SortOrder = "desc"
	}
}

// InsertAnalysis stores a completed analysis record.
func (db *DB) InsertAnalysis(ctx context.Context, a *Analysis) error {
	a.CreatedAt = time.Now().Unix()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO analyses (user_id, filename, score, file_object_name, full_result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Filename, a.Score, a.FileObjectName, string(a.FullResult), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("analysis id: %w", err)
	}
	a.ID = id
	return nil
}

// AnalysisByID fetches a single record.
func (db *DB) AnalysisByID(ctx context.Context, id int64) (*Analysis, error) {
	var a Analysis
	var objectName sql.NullString
	var fullResult string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, filename, score, file_object_name, full_result, created_at
		 FROM analyses WHERE id = ?`, id).
		Scan(&a.ID, &a.UserID, &a.Filename, &a.Score, &objectName, &fullResult, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select analysis %d: %w", id, err)
	}
	a.FileObjectName = objectName.String
	a.FullResult = []byte(fullResult)
	return &a, nil
}

// DeleteAnalysis removes a record.
func (db *DB) DeleteAnalysis(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete analysis %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAnalyses returns one page of records plus the total count matching
// the filters. When opts.UserID is nil all users are included.
func (db *DB) ListAnalyses(ctx context.Context, opts ListOptions) ([]*Analysis, int, error) {
	opts.sanitize(100, map[string]bool{
		"created_at": true, "score": true, "filename": true, "user_id": true,
	})

	var where []string
	var args []any
	if opts.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *opts.UserID)
	}
	if opts.Search != "" {
		where = append(where, "filename LIKE ?")
		args = append(args, "%"+opts.Search+"%")
	}
	if opts.MinScore != nil {
		where = append(where, "score >= ?")
		args = append(args, *opts.MinScore)
	}
	if opts.MaxScore != nil {
		where = append(where, "score <= ?")
		args = append(args, *opts.MaxScore)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM analyses"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count analyses: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT id, user_id, filename, score, file_object_name, full_result, created_at FROM analyses%s ORDER BY %s %s LIMIT ? OFFSET ?",
		clause, opts.SortBy, strings.ToUpper(opts.SortOrder))
	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []*Analysis
	for rows.Next() {
		var a Analysis
		var objectName sql.NullString
		var fullResult string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Filename, &a.Score,
			&objectName, &fullResult, &a.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan analysis: %w", err)
		}
		a.FileObjectName = objectName.String
		a.FullResult = []byte(fullResult)
		out = append(out, &a)
	}
	return out, total, rows.Err()
}
