package reports

import (
	"sort"

	"pos-analytics/internal/config"
	"pos-analytics/internal/database"
	"pos-analytics/internal/export"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SalesDay struct {
	Date    string          `json:"date"`
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
	Tax     decimal.Decimal `json:"tax"`
	Profit  decimal.Decimal `json:"gross_profit"`
	Average decimal.Decimal `json:"average_ticket"`
}

type SalesCashier struct {
	UserID uint            `json:"user_id"`
	Name   string          `json:"name"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

type SalesReport struct {
	From          string                   `json:"from"`
	To            string                   `json:"to"`
	Count         int                      `json:"count"`
	Subtotal      decimal.Decimal          `json:"subtotal"`
	Tax           decimal.Decimal          `json:"tax"`
	Total         decimal.Decimal          `json:"total"`
	Commission    decimal.Decimal          `json:"commission"`
	PaidCash      decimal.Decimal          `json:"paid_cash"`
	PaidCard      decimal.Decimal          `json:"paid_card"`
	PaidTransfer  decimal.Decimal          `json:"paid_transfer"`
	GrossProfit   decimal.Decimal          `json:"gross_profit"`
	AverageTicket decimal.Decimal          `json:"average_ticket"`
	ByState       map[models.SaleState]int `json:"by_state"`
	Days          []SalesDay               `json:"days"`
	Cashiers      []SalesCashier           `json:"cashiers"`
}

// summarizeSales folds the sales of a range. Only completed sales count
// towards the money totals; every state is counted in ByState.
func summarizeSales(sales []models.Sale) SalesReport {
	r := SalesReport{ByState: map[models.SaleState]int{
		models.SaleCompleted: 0,
		models.SalePending:   0,
		models.SaleCancelled: 0,
	}}
	days := map[string]*SalesDay{}
	cashiers := map[uint]*SalesCashier{}

	for _, s := range sales {
		r.ByState[s.State]++
		if s.State != models.SaleCompleted {
			continue
		}

		profit := decimal.Zero
		for _, it := range s.Items {
			profit = profit.Add(it.GrossProfit)
		}

		r.Count++
		r.Subtotal = r.Subtotal.Add(s.Subtotal)
		r.Tax = r.Tax.Add(s.Tax)
		r.Total = r.Total.Add(s.Total)
		r.Commission = r.Commission.Add(s.Commission)
		r.PaidCash = r.PaidCash.Add(s.PaidCash)
		r.PaidCard = r.PaidCard.Add(s.PaidCard)
		r.PaidTransfer = r.PaidTransfer.Add(s.PaidTransfer)
		r.GrossProfit = r.GrossProfit.Add(profit)

		key := s.Date.Format(dateLayout)
		d, ok := days[key]
		if !ok {
			d = &SalesDay{Date: key}
			days[key] = d
		}
		d.Count++
		d.Total = d.Total.Add(s.Total)
		d.Tax = d.Tax.Add(s.Tax)
		d.Profit = d.Profit.Add(profit)

		cs, ok := cashiers[s.UserID]
		if !ok {
			cs = &SalesCashier{UserID: s.UserID, Name: s.User.Name}
			cashiers[s.UserID] = cs
		}
		cs.Count++
		cs.Total = cs.Total.Add(s.Total)
	}

	if r.Count > 0 {
		r.AverageTicket = r.Total.Div(decimal.NewFromInt(int64(r.Count))).Round(2)
	}

	r.Days = make([]SalesDay, 0, len(days))
	for _, d := range days {
		d.Average = d.Total.Div(decimal.NewFromInt(int64(d.Count))).Round(2)
		r.Days = append(r.Days, *d)
	}
	sort.Slice(r.Days, func(i, j int) bool { return r.Days[i].Date < r.Days[j].Date })

	r.Cashiers = make([]SalesCashier, 0, len(cashiers))
	for _, cs := range cashiers {
		r.Cashiers = append(r.Cashiers, *cs)
	}
	sort.Slice(r.Cashiers, func(i, j int) bool {
		if !r.Cashiers[i].Total.Equal(r.Cashiers[j].Total) {
			return r.Cashiers[i].Total.GreaterThan(r.Cashiers[j].Total)
		}
		return r.Cashiers[i].UserID < r.Cashiers[j].UserID
	})
	return r
}

func salesExport(r SalesReport) export.Report {
	rep := export.Report{
		Title:  "Reporte de ventas",
		Period: "Del " + r.From + " al " + r.To,
		Columns: []export.Column{
			{Header: "Fecha", Kind: export.Text},
			{Header: "Ventas", Kind: export.Number},
			{Header: "Total", Kind: export.Money},
			{Header: "Impuesto", Kind: export.Money},
			{Header: "Utilidad bruta", Kind: export.Money},
			{Header: "Ticket promedio", Kind: export.Money},
		},
	}
	for _, d := range r.Days {
		rep.Rows = append(rep.Rows, []any{d.Date, d.Count, d.Total.InexactFloat64(), d.Tax.InexactFloat64(),
			d.Profit.InexactFloat64(), d.Average.InexactFloat64()})
	}
	rep.Summary = []export.Pair{
		{Label: "Ventas completadas", Value: export.Format(export.Number, r.Count)},
		{Label: "Canceladas", Value: export.Format(export.Number, r.ByState[models.SaleCancelled])},
		{Label: "Total", Value: money(r.Total.InexactFloat64())},
		{Label: "Impuesto", Value: money(r.Tax.InexactFloat64())},
		{Label: "Comisiones", Value: money(r.Commission.InexactFloat64())},
		{Label: "Efectivo", Value: money(r.PaidCash.InexactFloat64())},
		{Label: "Tarjeta", Value: money(r.PaidCard.InexactFloat64())},
		{Label: "Transferencia", Value: money(r.PaidTransfer.InexactFloat64())},
		{Label: "Utilidad bruta", Value: money(r.GrossProfit.InexactFloat64())},
		{Label: "Ticket promedio", Value: money(r.AverageTicket.InexactFloat64())},
	}
	return rep
}

// GET /api/reports/sales?from=&to=&format=
// Sin format responde JSON; con format=xlsx|pdf descarga el archivo.
func SalesReportHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := parseRange(c, timeNow())
		if err != nil {
			return err
		}

		var sales []models.Sale
		if err := database.DB.WithContext(c.UserContext()).
			Preload("User").
			Preload("Items").
			Where("date >= ? AND date <= ?", from.UTC(), to.UTC()).
			Order("date asc, id asc").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron cargar las ventas")
		}

		// días en la zona del rango pedido
		for i := range sales {
			sales[i].Date = sales[i].Date.In(from.Location())
		}
		r := summarizeSales(sales)
		r.From = from.Format(dateLayout)
		r.To = to.Format(dateLayout)

		if c.Query("format") == "" {
			return c.JSON(r)
		}
		format, err := exportFormat(c)
		if err != nil {
			return err
		}
		return sendExport(c, cfg, salesExport(r), format)
	}
}
