package models

import "gorm.io/gorm"

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Product{}, &AlternateUnit{},
		&Transaction{}, &TransactionLineItem{},
		&Order{}, &OrderLineItem{},
	)
}
