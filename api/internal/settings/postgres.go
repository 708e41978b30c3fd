package settings

import (
	"context"
	"database/sql"
	"errors"
)

// PGKV uses the settings(key, value) table created by store.Open.
type PGKV struct{ DB *sql.DB }

func (p *PGKV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := p.DB.QueryRowContext(ctx, `select value from settings where key=$1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (p *PGKV) Set(ctx context.Context, key, value string) error {
	const q = `
insert into settings(key, value) values ($1,$2)
on conflict (key) do update set value=excluded.value`
	_, err := p.DB.ExecContext(ctx, q, key, value)
	return err
}

// NewPGStore stores settings in Postgres.
func NewPGStore(db *sql.DB, defaults Settings) Store {
	return &kvStore{kv: &PGKV{DB: db}, defaults: defaults}
}
