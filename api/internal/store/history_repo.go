package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Recognition is one finished submission.
type Recognition struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ImageHash string    `json:"image_hash"`
	Source    string    `json:"source"` // draw | upload | telegram
	Prompt    string    `json:"prompt"`
	Markup    string    `json:"markup"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type HistoryRepo struct{ DB *sql.DB }

func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{DB: db} }

func (r *HistoryRepo) Add(ctx context.Context, rec Recognition) (int64, error) {
	const q = `
insert into recognitions (image_hash, source, prompt, markup, error_kind, error)
values ($1,$2,$3,$4,$5,$6)
returning id`
	var id int64
	err := r.DB.QueryRowContext(ctx, q,
		rec.ImageHash, rec.Source, rec.Prompt, rec.Markup, rec.ErrorKind, rec.Error,
	).Scan(&id)
	return id, err
}

// Recent returns up to limit rows, newest first.
func (r *HistoryRepo) Recent(ctx context.Context, limit int) ([]Recognition, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
select id, created_at, image_hash, source, prompt, markup, error_kind, error
from recognitions
order by created_at desc, id desc
limit $1`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recognition
	for rows.Next() {
		var rec Recognition
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.ImageHash, &rec.Source,
			&rec.Prompt, &rec.Markup, &rec.ErrorKind, &rec.Error); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PurgeOlderThan deletes rows created before now-olderThan.
func (r *HistoryRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	res, err := r.DB.ExecContext(ctx, `delete from recognitions where created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
