package identity

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type kvRecord struct {
	bun.BaseModel `bun:"table:identity_records,alias:rec"`
	Key           string `bun:"key,pk"`
	Value         []byte `bun:"value,notnull"`
}

// BunTree is a Tree persisted in a single SQLite table through bun. The
// primary key gives the ordered scan; values are opaque blobs.
type BunTree struct {
	db *bun.DB
}

var _ Tree = (*BunTree)(nil)

// OpenSQLite opens a bun handle over the SQLite shim driver.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database")
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// NewBunTree wraps a bun handle. Call Init once before use to ensure the
// backing table exists.
func NewBunTree(db *bun.DB) *BunTree {
	return &BunTree{db: db}
}

// Init creates the backing table when missing. Idempotent.
func (t *BunTree) Init(ctx context.Context) error {
	_, err := t.db.NewCreateTable().
		Model((*kvRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create record table")
	}
	return nil
}

func (t *BunTree) Get(ctx context.Context, key string) ([]byte, bool, error) {
	rec := &kvRecord{}
	err := t.db.NewSelect().
		Model(rec).
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read record")
	}
	return rec.Value, true, nil
}

func (t *BunTree) Put(ctx context.Context, key string, value []byte) error {
	rec := &kvRecord{Key: key, Value: value}
	_, err := t.db.NewInsert().
		Model(rec).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write record")
	}
	return nil
}

func (t *BunTree) Delete(ctx context.Context, key string) (bool, error) {
	res, err := t.db.NewDelete().
		Model((*kvRecord)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete record")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read delete result")
	}
	return affected > 0, nil
}

func (t *BunTree) Contains(ctx context.Context, key string) (bool, error) {
	exists, err := t.db.NewSelect().
		Model((*kvRecord)(nil)).
		Where("key = ?", key).
		Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check record presence")
	}
	return exists, nil
}

func (t *BunTree) Scan(ctx context.Context, fn func(key string, value []byte) error) error {
	var recs []kvRecord
	err := t.db.NewSelect().
		Model(&recs).
		Order("key ASC").
		Scan(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to scan records")
	}

	for _, rec := range recs {
		if err := fn(rec.Key, rec.Value); err != nil {
			return err
		}
	}
	return nil
}

func (t *BunTree) Len(ctx context.Context) (int, error) {
	count, err := t.db.NewSelect().
		Model((*kvRecord)(nil)).
		Count(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count records")
	}
	return count, nil
}

func (t *BunTree) GenerateID() string {
	return uuid.New().String()
}
