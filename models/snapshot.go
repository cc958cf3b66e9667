package models

import (
	"context"
	"sync"

	"github.com/mmdatafocus/stock_ledger/utils"
)

// Snapshot is the full persisted state. Products keep catalog insertion order,
// Transactions and Orders are newest-first.
type Snapshot struct {
	Products     []Product     `json:"products"`
	Transactions []Transaction `json:"transactions"`
	Orders       []Order       `json:"orders"`
}

// Store is the persistence collaborator. Load returns utils.ErrorRecordNotFound
// when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Products:     make([]Product, len(s.Products)),
		Transactions: make([]Transaction, len(s.Transactions)),
		Orders:       make([]Order, len(s.Orders)),
	}
	for i := range s.Products {
		out.Products[i] = s.Products[i].clone()
	}
	for i := range s.Transactions {
		out.Transactions[i] = s.Transactions[i].clone()
	}
	for i := range s.Orders {
		out.Orders[i] = s.Orders[i].clone()
	}
	return out
}

// MemoryStore keeps a deep copy of the last saved snapshot.
type MemoryStore struct {
	mu   sync.Mutex
	snap *Snapshot
}

func NewMemoryStore(initial *Snapshot) *MemoryStore {
	return &MemoryStore{snap: initial.Clone()}
}

func (m *MemoryStore) Load(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, utils.ErrorRecordNotFound
	}
	return m.snap.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, snapshot *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snapshot.Clone()
	return nil
}
