package collection

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// MemoryStore is a mutex-guarded Store. It enforces one entry per
// (account, product) without any database constraint.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	entries map[enums.CollectionKind]map[Key]Entry
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[enums.CollectionKind]map[Key]Entry{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) List(_ context.Context, kind enums.CollectionKind, accountID int64) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Entry{}
	for key, entry := range m.entries[kind] {
		if key.AccountID == accountID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Merge(_ context.Context, kind enums.CollectionKind, key Key, delta, limit int) (Entry, error) {
	if kind != enums.CollectionKindCart {
		return Entry{}, ErrUnsupported
	}
	if delta > limit {
		return Entry{}, ErrQuantityLimit
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := m.bucket(kind)
	if entry, ok := bucket[key]; ok {
		if entry.Quantity > limit-delta {
			return Entry{}, ErrQuantityLimit
		}
		entry.Quantity += delta
		entry.UpdatedAt = m.now()
		bucket[key] = entry
		return entry, nil
	}
	entry := m.newEntry(kind, key, delta)
	bucket[key] = entry
	return entry, nil
}

func (m *MemoryStore) InsertIfAbsent(_ context.Context, kind enums.CollectionKind, key Key, quantity int) (Entry, bool, error) {
	if !kind.IsValid() {
		return Entry{}, false, unknownKind(kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := m.bucket(kind)
	if entry, ok := bucket[key]; ok {
		return entry, false, nil
	}
	if kind == enums.CollectionKindWishlist {
		quantity = 1
	}
	entry := m.newEntry(kind, key, quantity)
	bucket[key] = entry
	return entry, true, nil
}

func (m *MemoryStore) Replace(_ context.Context, kind enums.CollectionKind, key Key, quantity int) (Entry, error) {
	if kind != enums.CollectionKindCart {
		return Entry{}, ErrUnsupported
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := m.bucket(kind)
	entry, ok := bucket[key]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	entry.Quantity = quantity
	entry.UpdatedAt = m.now()
	bucket[key] = entry
	return entry, nil
}

func (m *MemoryStore) Delete(_ context.Context, kind enums.CollectionKind, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries[kind], key)
	return nil
}

func (m *MemoryStore) bucket(kind enums.CollectionKind) map[Key]Entry {
	bucket, ok := m.entries[kind]
	if !ok {
		bucket = map[Key]Entry{}
		m.entries[kind] = bucket
	}
	return bucket
}

func (m *MemoryStore) newEntry(kind enums.CollectionKind, key Key, quantity int) Entry {
	m.nextID++
	now := m.now()
	return Entry{
		ID:        m.nextID,
		Kind:      kind,
		AccountID: key.AccountID,
		ProductID: key.ProductID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
