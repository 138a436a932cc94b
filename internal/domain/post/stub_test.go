package post

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/realty/realty-api/internal/domain/credit"
)

// memLedger holds credits, orders and posts in memory and implements the
// credit store, the post repository and the shared transaction runner.
type memLedger struct {
	mu      sync.Mutex
	credits map[uuid.UUID]credit.Credit
	orders  []credit.Order
	posts   map[uuid.UUID]Post

	createErr  error
	abortTimes int
	txCalls    int
}

func newMemLedger() *memLedger {
	return &memLedger{
		credits: make(map[uuid.UUID]credit.Credit),
		posts:   make(map[uuid.UUID]Post),
	}
}

func (m *memLedger) balance(companyID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credits[companyID].Balance
}

func (m *memLedger) snapshot() func() {
	credits := make(map[uuid.UUID]credit.Credit, len(m.credits))
	for k, v := range m.credits {
		credits[k] = v
	}
	posts := make(map[uuid.UUID]Post, len(m.posts))
	for k, v := range m.posts {
		posts[k] = v
	}
	orders := append([]credit.Order(nil), m.orders...)
	return func() {
		m.credits, m.posts, m.orders = credits, posts, orders
	}
}

func (m *memLedger) InTx(ctx context.Context, fn func(ctx context.Context, ledger credit.Tx, posts Writer) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txCalls++
	restore := m.snapshot()
	tx := &memTx{m: m}

	err := fn(ctx, tx, tx)
	if err == nil && m.abortTimes > 0 {
		m.abortTimes--
		err = credit.ErrTransactionAborted
	}
	if err != nil {
		restore()
		return err
	}
	return nil
}

// credit.Store

func (m *memLedger) GetCredit(ctx context.Context, companyID uuid.UUID) (*credit.Credit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{m: m}).GetCredit(ctx, companyID)
}

func (m *memLedger) ExpireBalances(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (m *memLedger) ListOrders(ctx context.Context, companyID uuid.UUID, p credit.Pagination) ([]credit.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]credit.Order(nil), m.orders...), nil
}

func (m *memLedger) storeTx(ctx context.Context, fn func(ctx context.Context, tx credit.Tx) error) error {
	return m.InTx(ctx, func(ctx context.Context, ledger credit.Tx, _ Writer) error {
		return fn(ctx, ledger)
	})
}

// Repository

func (m *memLedger) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	return &p, nil
}

// ledgerStore adapts memLedger to credit.Store, whose InTx signature differs
// from TxRunner's.
type ledgerStore struct {
	*memLedger
}

func (s ledgerStore) InTx(ctx context.Context, fn func(ctx context.Context, tx credit.Tx) error) error {
	return s.storeTx(ctx, fn)
}

// memTx runs with memLedger.mu held.
type memTx struct {
	m *memLedger
}

func (t *memTx) GetCredit(ctx context.Context, companyID uuid.UUID) (*credit.Credit, error) {
	c, ok := t.m.credits[companyID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *memTx) UpsertGrant(ctx context.Context, companyID uuid.UUID, credits int, now, expiry time.Time) (*credit.Credit, error) {
	c, ok := t.m.credits[companyID]
	if !ok {
		c = credit.Credit{CompanyID: companyID, StartDate: now}
	}
	c.Balance += credits
	c.ExpiryDate = expiry
	c.UpdatedAt = now
	t.m.credits[companyID] = c
	return &c, nil
}

func (t *memTx) DeductIfSufficient(ctx context.Context, companyID uuid.UUID, credits int, now time.Time) (*credit.Credit, error) {
	c, ok := t.m.credits[companyID]
	if !ok || c.Balance < credits || c.ExpiryDate.Before(now) {
		return nil, nil
	}
	c.Balance -= credits
	c.UpdatedAt = now
	t.m.credits[companyID] = c
	return &c, nil
}

func (t *memTx) InsertOrder(ctx context.Context, order *credit.Order) error {
	t.m.orders = append(t.m.orders, *order)
	return nil
}

func (t *memTx) SetOrderTypeID(ctx context.Context, orderID uuid.UUID, typeID string) error {
	for i := range t.m.orders {
		if t.m.orders[i].ID == orderID && t.m.orders[i].TypeID == "" {
			t.m.orders[i].TypeID = typeID
			return nil
		}
	}
	return credit.ErrOrderNotFound
}

func (t *memTx) Create(ctx context.Context, p *Post) error {
	if t.m.createErr != nil {
		return t.m.createErr
	}
	t.m.posts[p.ID] = *p
	return nil
}

type companiesStub struct{}

func (companiesStub) Exists(ctx context.Context, companyID uuid.UUID) (bool, error) {
	return true, nil
}

type publisherStub struct {
	mu    sync.Mutex
	spent int
}

func (p *publisherStub) Publish(ctx context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if subject == credit.SubjectSpent {
		p.spent++
	}
	return nil
}
