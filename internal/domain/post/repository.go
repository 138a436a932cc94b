package post

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/realty/realty-api/internal/domain/credit"
)

const (
	queryTimeout = 3 * time.Second
	txTimeout    = 5 * time.Second
)

const postColumns = `id, company_id, title, body, is_sponsored, expiry_date, created_at, updated_at`

// Repository defines post reads
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
}

// Writer is the post write set available inside a ledger transaction
type Writer interface {
	Create(ctx context.Context, p *Post) error
}

// TxRunner runs a ledger deduction and post writes as one unit of work
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, ledger credit.Tx, posts Writer) error) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates post repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Post
	err := r.db.GetContext(ctx, &p, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

type txWriter struct {
	tx *sqlx.Tx
}

func (w *txWriter) Create(ctx context.Context, p *Post) error {
	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO posts (`+postColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.CompanyID, p.Title, p.Body, p.IsSponsored, p.ExpiryDate, p.CreatedAt, p.UpdatedAt)
	return err
}

type sqlTxRunner struct {
	db *sqlx.DB
}

// NewTxRunner shares one PostgreSQL transaction between the credit ledger
// and the posts table.
func NewTxRunner(db *sqlx.DB) TxRunner {
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) InTx(ctx context.Context, fn func(ctx context.Context, ledger credit.Tx, posts Writer) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	return credit.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, credit.NewTxRepository(tx), &txWriter{tx: tx})
	})
}
