package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           uint            `gorm:"primaryKey"`
	Name         string          `gorm:"size:120;not null;unique"`
	Code         string          `gorm:"size:50;index"` // código de barras o interno
	CategoryID   *uint           `gorm:"index"`
	Category     *Category
	SupplierID   *uint           `gorm:"index"`
	Supplier     *Supplier
	Stock        decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // precio con impuesto
	PriceNoTax   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // precio sin impuesto
	Cost         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // costo unitario
	TaxPct       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	SoldByWeight bool            `gorm:"not null;default:false"` // se vende por peso (báscula)
	Active       bool            `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
