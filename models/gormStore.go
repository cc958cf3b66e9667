package models

import (
	"context"

	"github.com/mmdatafocus/stock_ledger/config"
	"github.com/mmdatafocus/stock_ledger/utils"
	"gorm.io/gorm"
)

const saveBatchSize = 200

// GormStore persists the whole snapshot. Each Save replaces every row inside one
// database transaction; Position keeps catalog and history order.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func orderBySeqNo(db *gorm.DB) *gorm.DB {
	return db.Order("seq_no")
}

func (g *GormStore) Load(ctx context.Context) (*Snapshot, error) {
	db := g.db.WithContext(ctx)
	snap := &Snapshot{}

	if err := db.Preload("AlternateUnits", orderBySeqNo).Order("position").Find(&snap.Products).Error; err != nil {
		config.LogError(config.GetLogger(), "GormStore", "Load", "loading products", nil, err)
		return nil, err
	}
	if err := db.Preload("Items", orderBySeqNo).Order("position").Find(&snap.Transactions).Error; err != nil {
		config.LogError(config.GetLogger(), "GormStore", "Load", "loading transactions", nil, err)
		return nil, err
	}
	if err := db.Preload("Items", orderBySeqNo).Order("position").Find(&snap.Orders).Error; err != nil {
		config.LogError(config.GetLogger(), "GormStore", "Load", "loading orders", nil, err)
		return nil, err
	}

	if len(snap.Products) == 0 && len(snap.Transactions) == 0 && len(snap.Orders) == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	for i := range snap.Products {
		snap.Products[i].AlternateUnits = cloneUnits(snap.Products[i].AlternateUnits)
	}
	return snap, nil
}

func (g *GormStore) Save(ctx context.Context, snapshot *Snapshot) error {
	snap := snapshot.Clone()
	for i := range snap.Products {
		snap.Products[i].Position = i
		for j := range snap.Products[i].AlternateUnits {
			snap.Products[i].AlternateUnits[j].ProductId = snap.Products[i].ID
			snap.Products[i].AlternateUnits[j].SeqNo = j
		}
	}
	for i := range snap.Transactions {
		snap.Transactions[i].Position = i
		for j := range snap.Transactions[i].Items {
			snap.Transactions[i].Items[j].TransactionId = snap.Transactions[i].ID
			snap.Transactions[i].Items[j].SeqNo = j
		}
	}
	for i := range snap.Orders {
		snap.Orders[i].Position = i
		for j := range snap.Orders[i].Items {
			snap.Orders[i].Items[j].OrderId = snap.Orders[i].ID
			snap.Orders[i].Items[j].SeqNo = j
		}
	}

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// children first
		for _, model := range []any{&AlternateUnit{}, &TransactionLineItem{}, &OrderLineItem{}, &Product{}, &Transaction{}, &Order{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		if len(snap.Products) > 0 {
			if err := tx.CreateInBatches(snap.Products, saveBatchSize).Error; err != nil {
				return err
			}
		}
		if len(snap.Transactions) > 0 {
			if err := tx.CreateInBatches(snap.Transactions, saveBatchSize).Error; err != nil {
				return err
			}
		}
		if len(snap.Orders) > 0 {
			if err := tx.CreateInBatches(snap.Orders, saveBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(config.GetLogger(), "GormStore", "Save", "saving snapshot", nil, err)
	}
	return err
}
