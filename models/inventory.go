package models

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/mmdatafocus/stock_ledger/config"
	"github.com/mmdatafocus/stock_ledger/utils"
)

// IdGenerator supplies unique ids for new products, transactions and orders.
type IdGenerator func() string

// Clock supplies "today" as YYYY-MM-DD.
type Clock func() string

func NewId() string {
	return uuid.NewString()
}

// Inventory holds the catalog, the ledger history and the order pipeline.
// All mutations go through an InventoryTx.
type Inventory struct {
	mu    sync.RWMutex
	state *Snapshot
	store Store
	newId IdGenerator
	today Clock
}

type Option func(*Inventory)

func WithStore(store Store) Option {
	return func(inv *Inventory) { inv.store = store }
}

func WithIdGenerator(gen IdGenerator) Option {
	return func(inv *Inventory) { inv.newId = gen }
}

func WithClock(clock Clock) Option {
	return func(inv *Inventory) { inv.today = clock }
}

func NewInventory(opts ...Option) *Inventory {
	inv := &Inventory{
		state: &Snapshot{},
		newId: NewId,
		today: utils.Today,
	}
	for _, opt := range opts {
		opt(inv)
	}
	if inv.store == nil {
		inv.store = NewMemoryStore(nil)
	}
	return inv
}

// Load replaces the in-memory state with the store's snapshot.
// An empty store leaves an empty inventory.
func (inv *Inventory) Load(ctx context.Context) error {
	snap, err := inv.store.Load(ctx)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		snap = &Snapshot{}
	} else if err != nil {
		config.LogError(config.GetLogger(), "Inventory", "Load", "loading snapshot", nil, err)
		return err
	}
	for i := range snap.Products {
		snap.Products[i].AlternateUnits = cloneUnits(snap.Products[i].AlternateUnits)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.state = snap
	return nil
}

// Snapshot returns a deep copy of the current state.
func (inv *Inventory) Snapshot() *Snapshot {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.state.Clone()
}

func (inv *Inventory) Today() string {
	return inv.today()
}

// View runs fn under the read lock.
func (inv *Inventory) View(fn func(s *Snapshot)) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	fn(inv.state)
}

// InventoryTx is an exclusive unit of work over the inventory. Every change made
// through it becomes visible and persisted on Commit, or is discarded on Rollback.
type InventoryTx struct {
	inv        *Inventory
	ctx        context.Context
	checkpoint *Snapshot
	done       bool
}

var ErrTxDone = errors.New("inventory transaction already finished")

func (inv *Inventory) Begin(ctx context.Context) *InventoryTx {
	inv.mu.Lock()
	return &InventoryTx{
		inv:        inv,
		ctx:        ctx,
		checkpoint: inv.state.Clone(),
	}
}

// Commit persists the state through the store. A failed save restores the checkpoint.
func (tx *InventoryTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	defer tx.inv.mu.Unlock()

	if err := tx.inv.store.Save(tx.ctx, tx.inv.state.Clone()); err != nil {
		tx.inv.state = tx.checkpoint
		config.LogError(config.GetLogger(), "Inventory", "Commit", "saving snapshot", nil, err)
		return err
	}
	return nil
}

// Rollback discards every change since Begin. Safe to call after Commit.
func (tx *InventoryTx) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	tx.inv.state = tx.checkpoint
	tx.inv.mu.Unlock()
}

func (tx *InventoryTx) Context() context.Context {
	return tx.ctx
}

func (tx *InventoryTx) Today() string {
	return tx.inv.today()
}

func (tx *InventoryTx) state() *Snapshot {
	return tx.inv.state
}

// Update runs fn inside a transaction, committing when fn returns nil.
func (inv *Inventory) Update(ctx context.Context, fn func(tx *InventoryTx) error) error {
	tx := inv.Begin(ctx)
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
