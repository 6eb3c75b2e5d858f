package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// memTable is a mutex-guarded id -> record map with sequential ids.
type memTable[T any] struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]T
}

func newMemTable[T any]() *memTable[T] {
	return &memTable[T]{rows: make(map[int64]T)}
}

func (t *memTable[T]) insert(fn func(id int64) (T, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, err := fn(t.nextID + 1)
	if err != nil {
		return err
	}
	t.nextID++
	t.rows[t.nextID] = row
	return nil
}

func (t *memTable[T]) get(id int64) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

// update replaces the row when it exists.
func (t *memTable[T]) update(id int64, fn func(T) (T, error)) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	row, ok := t.rows[id]
	if !ok {
		return zero, ErrNotFound
	}
	row, err := fn(row)
	if err != nil {
		return zero, err
	}
	t.rows[id] = row
	return row, nil
}

func (t *memTable[T]) remove(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

// scan returns the matching rows ordered by id.
func (t *memTable[T]) scan(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]int64, 0, len(t.rows))
	for id, row := range t.rows {
		if keep == nil || keep(row) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

type memoryUserRepository struct {
	table *memTable[domain.User]
}

// NewMemoryUserRepository keeps accounts in process memory.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{table: newMemTable[domain.User]()}
}

func (r *memoryUserRepository) usernameTaken(username string, except int64) bool {
	for _, u := range r.table.rows {
		if u.ID != except && u.Username == username {
			return true
		}
	}
	return false
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	return r.table.insert(func(id int64) (domain.User, error) {
		if r.usernameTaken(user.Username, 0) {
			return domain.User{}, ErrConflict
		}
		now := time.Now().UTC()
		user.ID = id
		user.CreatedAt = now
		user.UpdatedAt = now
		return *user, nil
	})
}

func (r *memoryUserRepository) Update(_ context.Context, user *domain.User) error {
	_, err := r.table.update(user.ID, func(domain.User) (domain.User, error) {
		if r.usernameTaken(user.Username, user.ID) {
			return domain.User{}, ErrConflict
		}
		user.UpdatedAt = time.Now().UTC()
		return *user, nil
	})
	return err
}

func (r *memoryUserRepository) Delete(_ context.Context, id int64) error {
	return r.table.remove(id)
}

func (r *memoryUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := r.table.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	found := r.table.scan(func(u domain.User) bool { return u.Username == username })
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

func (r *memoryUserRepository) List(_ context.Context, filter UserFilter) ([]domain.User, error) {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	return r.table.scan(func(u domain.User) bool {
		if filter.Role != "" && u.Role != filter.Role {
			return false
		}
		if term != "" && !strings.Contains(strings.ToLower(u.Username), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) {
			return false
		}
		return true
	}), nil
}

type memoryOrderRepository struct {
	table *memTable[domain.OrderRecord]
}

// NewMemoryOrderRepository keeps orders in process memory.
func NewMemoryOrderRepository() OrderRepository {
	return &memoryOrderRepository{table: newMemTable[domain.OrderRecord]()}
}

func (r *memoryOrderRepository) Create(_ context.Context, order *domain.OrderRecord) error {
	return r.table.insert(func(id int64) (domain.OrderRecord, error) {
		now := domain.NewTimestamp(time.Now().UTC())
		order.ID = id
		order.CreatedAt = now
		order.UpdatedAt = now
		return *order, nil
	})
}

func (r *memoryOrderRepository) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus) (*domain.OrderRecord, error) {
	order, err := r.table.update(id, func(o domain.OrderRecord) (domain.OrderRecord, error) {
		o.Status = status
		o.UpdatedAt = domain.NewTimestamp(time.Now().UTC())
		return o, nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *memoryOrderRepository) GetByID(_ context.Context, id int64) (*domain.OrderRecord, error) {
	order, ok := r.table.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &order, nil
}

// List returns matches newest first, like the Postgres implementation.
func (r *memoryOrderRepository) List(_ context.Context, filter OrderFilter) ([]domain.OrderRecord, error) {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	out := r.table.scan(func(o domain.OrderRecord) bool {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, o.Status) {
			return false
		}
		if filter.CreatedBy > 0 && (o.CreatedBy == nil || o.CreatedBy.ID != filter.CreatedBy) {
			return false
		}
		if term != "" && !strings.Contains(strings.ToLower(o.CustomerName), term) &&
			!strings.Contains(strings.ToLower(o.OrderNumber), term) {
			return false
		}
		return true
	})
	slices.Reverse(out)
	return out, nil
}
