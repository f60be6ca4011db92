// Package analytics computes ABC, profitability and break-even analyses over
// an in-memory snapshot of products and sales. Nothing here touches the
// database or the HTTP layer; every function returns new values.
package analytics

import (
	"fmt"
	"strings"
	"time"
)

// Dimension is the grouping key of an analysis.
type Dimension int

const (
	ByProduct Dimension = iota
	ByCategory
	BySupplier
	ByClient
)

func (d Dimension) String() string {
	switch d {
	case ByCategory:
		return "category"
	case BySupplier:
		return "supplier"
	case ByClient:
		return "client"
	default:
		return "product"
	}
}

// Label is the Spanish column header used in grids and exports.
func (d Dimension) Label() string {
	switch d {
	case ByCategory:
		return "Categoría"
	case BySupplier:
		return "Proveedor"
	case ByClient:
		return "Cliente"
	default:
		return "Producto"
	}
}

func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "product", "products", "producto", "productos":
		return ByProduct, nil
	case "category", "categoria", "categoría", "categorias", "categorías":
		return ByCategory, nil
	case "supplier", "proveedor", "proveedores":
		return BySupplier, nil
	case "client", "customer", "cliente", "clientes":
		return ByClient, nil
	}
	return ByProduct, fmt.Errorf("dimensión desconocida: %q", s)
}

// Period is the reporting period used to project sold quantities.
type Period int

const (
	Monthly Period = iota
	Daily
	Weekly
	Annual
)

func (p Period) Days() float64 {
	switch p {
	case Daily:
		return 1
	case Weekly:
		return 7
	case Annual:
		return 365
	default:
		return 30
	}
}

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Annual:
		return "annual"
	default:
		return "monthly"
	}
}

func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monthly", "mensual", "mes":
		return Monthly, nil
	case "daily", "diario", "dia", "día":
		return Daily, nil
	case "weekly", "semanal", "semana":
		return Weekly, nil
	case "annual", "yearly", "anual", "año":
		return Annual, nil
	}
	return Monthly, fmt.Errorf("periodo desconocido: %q", s)
}

// PeriodFactor scales quantities sold in [from, to] to one reporting
// period. An empty or inverted range yields 1.
func PeriodFactor(p Period, from, to time.Time) float64 {
	if from.IsZero() || to.IsZero() || !to.After(from) {
		return 1
	}
	days := to.Sub(from).Hours() / 24
	if days < 1 {
		days = 1
	}
	return p.Days() / days
}

type Class string

const (
	ClassA Class = "A"
	ClassB Class = "B"
	ClassC Class = "C"
)

type Equilibrium string

const (
	Profitable     Equilibrium = "Rentable"
	NearBreakEven  Equilibrium = "Cerca"
	Deficit        Equilibrium = "Déficit"
	NegativeMargin Equilibrium = "Margen Negativo"
)

// Tier buckets items by net margin.
type Tier string

const (
	TierHigh   Tier = "Alta"
	TierMedium Tier = "Media"
	TierLow    Tier = "Baja"
	TierLoss   Tier = "Pérdida"
)

// Rates are the cost assumptions the pipelines apply. They are estimates
// expressed as a share of revenue.
type Rates struct {
	OperatingCost     float64
	FixedCost         float64
	BusinessFixedCost float64
	NearBreakEven     float64
	ParetoThreshold   float64
}

func DefaultRates() Rates {
	return Rates{
		OperatingCost:     0.12,
		FixedCost:         0.20,
		BusinessFixedCost: 0.25,
		NearBreakEven:     0.70,
		ParetoThreshold:   75,
	}
}

// Product, Line, Sale and Snapshot are the read-only inputs of a run.
type Product struct {
	ID       uint
	Name     string
	Category string
	Supplier string
	Stock    float64
	Price    float64
	Cost     float64
	Active   bool
}

type Line struct {
	ProductID uint
	Name      string
	Quantity  float64
	UnitPrice float64
	UnitCost  float64
	Subtotal  float64
}

type Sale struct {
	ID        uint
	Date      time.Time
	ClientID  uint // 0: venta al público en general
	Client    string
	ClientDoc string
	Completed bool
	Lines     []Line
}

type Snapshot struct {
	From     time.Time
	To       time.Time
	Products []Product
	Sales    []Sale
}

// Criteria is built once from the request and never mutated by the
// pipeline.
type Criteria struct {
	From      time.Time
	To        time.Time
	Dimension Dimension
	Metric    Metric
	TopN      int
	Period    Period

	// IncludeIdle adds zero-valued items for keys without sales. Off means
	// "solo activos".
	IncludeIdle bool

	Categories []string
	Suppliers  []string

	MinMarginPct  float64
	HasMinMargin  bool
	MinRevenue    float64
	HasMinRevenue bool
}

// Item is one row of an analysis. All ratios are 0 when their denominator
// is 0.
type Item struct {
	Key      string  `json:"key"`
	Category string  `json:"category,omitempty"`
	Revenue  float64 `json:"revenue"`
	Cost     float64 `json:"cost"`
	Quantity float64 `json:"quantity"`
	Sales    int     `json:"transactions"`
	Stock    float64 `json:"stock"`

	GrossProfit    float64 `json:"gross_profit"`
	OperatingCost  float64 `json:"operating_cost"`
	NetProfit      float64 `json:"net_profit"`
	GrossMarginPct float64 `json:"gross_margin_pct"`
	NetMarginPct   float64 `json:"net_margin_pct"`
	ROI            float64 `json:"roi"`
	CostBenefit    float64 `json:"cost_benefit"`
	Rotation       float64 `json:"rotation"`

	AvgPrice         float64 `json:"avg_price"`
	AvgCost          float64 `json:"avg_cost"`
	UnitContribution float64 `json:"unit_contribution"`

	// ABC
	Rank          int     `json:"rank,omitempty"`
	Class         Class   `json:"class,omitempty"`
	SharePct      float64 `json:"share_pct"`
	CumulativePct float64 `json:"cumulative_pct"`
	Score         float64 `json:"score"`
	Composite     float64 `json:"composite"`

	// profitability
	Tier Tier `json:"tier,omitempty"`

	// break-even
	FixedCost        float64     `json:"fixed_cost"`
	BreakEvenUnits   float64     `json:"break_even_units"`
	BreakEvenRevenue float64     `json:"break_even_revenue"`
	ProjectedUnits   float64     `json:"projected_units"`
	Equilibrium      Equilibrium `json:"equilibrium,omitempty"`
}

func clone(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func pct(a, b float64) float64 {
	return ratio(a, b) * 100
}
