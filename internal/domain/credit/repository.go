package credit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/realty/realty-api/internal/pkg/database"
)

const (
	queryTimeout = 3 * time.Second
	txTimeout    = 5 * time.Second

	maxListLimit = 100
)

const creditColumns = `company_id, balance, start_date, expiry_date, updated_at`

// CreditRepository stores credit balances and the order ledger in PostgreSQL.
type CreditRepository struct {
	db *sqlx.DB
}

var _ Store = (*CreditRepository)(nil)

func NewRepository(db *sqlx.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) GetCredit(ctx context.Context, companyID uuid.UUID) (*Credit, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return getCredit(ctx2, r.db, companyID)
}

// ExpireBalances zeroes every stored balance past its expiry. Rows already at
// zero are left untouched so repeated sweeps report nothing.
func (r *CreditRepository) ExpireBalances(ctx context.Context, now time.Time) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE credits
		SET balance = 0, updated_at = $1
		WHERE expiry_date < $1 AND balance > 0
	`, now)
	if err != nil {
		return 0, fmt.Errorf("%w: expire balances: %w", ErrInternal, err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected", ErrInternal)
	}
	return count, nil
}

func (r *CreditRepository) ListOrders(ctx context.Context, companyID uuid.UUID, pagination Pagination) ([]Order, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	orders := make([]Order, 0)
	err := r.db.SelectContext(ctx2, &orders, `
		SELECT id, company_id, type, credits_spent, type_id, admin_user_id, created_at
		FROM credit_orders
		WHERE company_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, companyID, limit, pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders", ErrInternal)
	}

	return orders, nil
}

// InTx runs fn inside a database transaction. Serialization failures,
// deadlocks and unique races surface as ErrTransactionAborted.
func (r *CreditRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx2, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	return RunInTx(ctx2, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx2, NewTxRepository(tx))
	})
}

// RunInTx begins a transaction on db, runs fn and commits. Other domains use
// it to put their own writes in the same unit of work as a deduction.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx: %w", ErrInternal, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return mapTxError(err)
	}

	if err := tx.Commit(); err != nil {
		return mapTxError(fmt.Errorf("commit tx: %w", err))
	}

	return nil
}

func mapTxError(err error) error {
	if database.IsTransactionConflict(err) && !errors.Is(err, ErrTransactionAborted) {
		return fmt.Errorf("%w: %w", ErrTransactionAborted, err)
	}
	return err
}

// TxRepository is the ledger write set bound to one transaction.
type TxRepository struct {
	tx *sqlx.Tx
}

var _ Tx = (*TxRepository)(nil)

func NewTxRepository(tx *sqlx.Tx) *TxRepository {
	return &TxRepository{tx: tx}
}

func (r *TxRepository) GetCredit(ctx context.Context, companyID uuid.UUID) (*Credit, error) {
	return getCredit(ctx, r.tx, companyID)
}

func (r *TxRepository) UpsertGrant(ctx context.Context, companyID uuid.UUID, credits int, now, expiry time.Time) (*Credit, error) {
	var c Credit
	err := r.tx.GetContext(ctx, &c, `
		INSERT INTO credits (company_id, balance, start_date, expiry_date, updated_at)
		VALUES ($1, $2, $3, $4, $3)
		ON CONFLICT (company_id) DO UPDATE
		SET balance = credits.balance + EXCLUDED.balance,
			expiry_date = EXCLUDED.expiry_date,
			updated_at = EXCLUDED.updated_at
		RETURNING `+creditColumns, companyID, credits, now, expiry)
	if err != nil {
		if database.IsTransactionConflict(err) {
			return nil, err
		}
		if database.IsForeignKeyViolation(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("%w: upsert credit: %w", ErrInternal, err)
	}
	return &c, nil
}

func (r *TxRepository) DeductIfSufficient(ctx context.Context, companyID uuid.UUID, credits int, now time.Time) (*Credit, error) {
	var c Credit
	err := r.tx.GetContext(ctx, &c, `
		UPDATE credits
		SET balance = balance - $2, updated_at = $3
		WHERE company_id = $1 AND balance >= $2 AND expiry_date >= $3
		RETURNING `+creditColumns, companyID, credits, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if database.IsTransactionConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: deduct credit: %w", ErrInternal, err)
	}
	return &c, nil
}

func (r *TxRepository) InsertOrder(ctx context.Context, order *Order) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO credit_orders (
			id, company_id, type, credits_spent, type_id, admin_user_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, order.ID, order.CompanyID, string(order.Type), order.CreditsSpent, order.TypeID, order.AdminUserID, order.CreatedAt)
	if err != nil {
		if database.IsTransactionConflict(err) {
			return err
		}
		if database.IsForeignKeyViolation(err) {
			return ErrCompanyNotFound
		}
		return fmt.Errorf("%w: insert order: %w", ErrInternal, err)
	}
	return nil
}

func (r *TxRepository) SetOrderTypeID(ctx context.Context, orderID uuid.UUID, typeID string) error {
	result, err := r.tx.ExecContext(ctx, `
		UPDATE credit_orders SET type_id = $2 WHERE id = $1 AND type_id = ''
	`, orderID, typeID)
	if err != nil {
		return fmt.Errorf("%w: backfill order: %w", ErrInternal, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func getCredit(ctx context.Context, q sqlx.QueryerContext, companyID uuid.UUID) (*Credit, error) {
	var c Credit
	err := sqlx.GetContext(ctx, q, &c, `SELECT `+creditColumns+` FROM credits WHERE company_id = $1`, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get credit: %w", ErrInternal, err)
	}
	return &c, nil
}
