package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleState string

const (
	SaleCompleted SaleState = "completed"
	SalePending   SaleState = "pending"
	SaleCancelled SaleState = "cancelled"
)

type Sale struct {
	ID       uint      `gorm:"primaryKey"`
	Code     string    `gorm:"size:36;uniqueIndex;not null"` // folio del ticket
	Date     time.Time `gorm:"index;not null"`
	ClientID *uint     `gorm:"index"`
	Client   *Client
	UserID   uint `gorm:"index;not null"`
	User     User

	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Tax      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	// desglose por forma de pago
	PaidCash     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaidCard     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaidTransfer decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Commission   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // comisión de terminal

	State     SaleState `gorm:"size:20;index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// BeforeSave guarda la fecha en UTC: con sqlite la fecha es texto con su
// propio desfase y los filtros por rango comparan texto.
func (s *Sale) BeforeSave(tx *gorm.DB) error {
	s.Date = s.Date.UTC()
	return nil
}

// SaleItem: línea de venta. No se modifica una vez completada la venta.
type SaleItem struct {
	ID          uint            `gorm:"primaryKey"`
	SaleID      uint            `gorm:"index;not null"`
	ProductID   uint            `gorm:"index;not null"`
	Product     Product
	ProductName string          `gorm:"size:120"`
	Quantity    decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"` // UnitPrice * Quantity
	GrossProfit decimal.Decimal `gorm:"type:decimal(12,2);not null"` // (UnitPrice - UnitCost) * Quantity
	TaxPct      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	CreatedAt   time.Time
}
