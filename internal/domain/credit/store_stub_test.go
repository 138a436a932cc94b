package credit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory Store. InTx holds the store mutex for the whole
// callback, which stands in for the row lock taken by the conditional UPDATE,
// and restores a snapshot when the callback fails.
type memStore struct {
	mu      sync.Mutex
	credits map[uuid.UUID]Credit
	orders  []Order

	beforeTx       func(s *memStore)
	insertOrderErr error
	txErr          error
}

func newMemStore() *memStore {
	return &memStore{credits: make(map[uuid.UUID]Credit)}
}

func (s *memStore) seed(c Credit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits[c.CompanyID] = c
}

func (s *memStore) ordersFor(companyID uuid.UUID) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.CompanyID == companyID {
			out = append(out, o)
		}
	}
	return out
}

func (s *memStore) stored(companyID uuid.UUID) (Credit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credits[companyID]
	return c, ok
}

func (s *memStore) GetCredit(ctx context.Context, companyID uuid.UUID) (*Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(companyID), nil
}

func (s *memStore) get(companyID uuid.UUID) *Credit {
	c, ok := s.credits[companyID]
	if !ok {
		return nil
	}
	return &c
}

func (s *memStore) ExpireBalances(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, c := range s.credits {
		if c.ExpiryDate.Before(now) && c.Balance > 0 {
			c.Balance = 0
			c.UpdatedAt = now
			s.credits[id] = c
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListOrders(ctx context.Context, companyID uuid.UUID, p Pagination) ([]Order, error) {
	orders := s.ordersFor(companyID)
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	if p.Offset >= len(orders) {
		return []Order{}, nil
	}
	end := p.Offset + p.Limit
	if end > len(orders) {
		end = len(orders)
	}
	return orders[p.Offset:end], nil
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if s.beforeTx != nil {
		s.beforeTx(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	credits := make(map[uuid.UUID]Credit, len(s.credits))
	for k, v := range s.credits {
		credits[k] = v
	}
	orders := append([]Order(nil), s.orders...)

	err := fn(ctx, &memTx{s: s})
	if err == nil {
		err = s.txErr
	}
	if err != nil {
		s.credits = credits
		s.orders = orders
		return err
	}
	return nil
}

// memTx runs with memStore.mu already held.
type memTx struct {
	s *memStore
}

func (t *memTx) GetCredit(ctx context.Context, companyID uuid.UUID) (*Credit, error) {
	return t.s.get(companyID), nil
}

func (t *memTx) UpsertGrant(ctx context.Context, companyID uuid.UUID, credits int, now, expiry time.Time) (*Credit, error) {
	c, ok := t.s.credits[companyID]
	if !ok {
		c = Credit{CompanyID: companyID, StartDate: now}
	}
	c.Balance += credits
	c.ExpiryDate = expiry
	c.UpdatedAt = now
	t.s.credits[companyID] = c
	return &c, nil
}

func (t *memTx) DeductIfSufficient(ctx context.Context, companyID uuid.UUID, credits int, now time.Time) (*Credit, error) {
	c, ok := t.s.credits[companyID]
	if !ok || c.Balance < credits || c.ExpiryDate.Before(now) {
		return nil, nil
	}
	c.Balance -= credits
	c.UpdatedAt = now
	t.s.credits[companyID] = c
	return &c, nil
}

func (t *memTx) InsertOrder(ctx context.Context, order *Order) error {
	if t.s.insertOrderErr != nil {
		return t.s.insertOrderErr
	}
	t.s.orders = append(t.s.orders, *order)
	return nil
}

func (t *memTx) SetOrderTypeID(ctx context.Context, orderID uuid.UUID, typeID string) error {
	for i := range t.s.orders {
		if t.s.orders[i].ID == orderID && t.s.orders[i].TypeID == "" {
			t.s.orders[i].TypeID = typeID
			return nil
		}
	}
	return ErrOrderNotFound
}

type companiesStub map[uuid.UUID]bool

func (c companiesStub) Exists(ctx context.Context, companyID uuid.UUID) (bool, error) {
	return c[companyID], nil
}

type publisherStub struct {
	mu       sync.Mutex
	subjects []string
	payloads []any
}

func (p *publisherStub) Publish(ctx context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *publisherStub) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.subjects {
		if s == subject {
			n++
		}
	}
	return n
}
