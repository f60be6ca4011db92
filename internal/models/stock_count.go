package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockCount: conteo físico de un producto. Counted pasa a ser la nueva
// existencia; Previous guarda la que había en el sistema.
type StockCount struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"index;not null"`
	Product   Product
	UserID    uint            `gorm:"index;not null"`
	Date      time.Time       `gorm:"index;not null"`
	Previous  decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Counted   decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Note      string          `gorm:"size:255"`
	CreatedAt time.Time
}

func (sc *StockCount) BeforeSave(tx *gorm.DB) error {
	sc.Date = sc.Date.UTC()
	return nil
}
