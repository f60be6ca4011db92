package analytics

import (
	"fmt"
	"strings"
)

// ClientWalkIn is the key used for sales without a registered client.
const ClientWalkIn = "Público en general"

type accumulator struct {
	key      string
	label    string
	revenue  float64
	cost     float64
	quantity float64
	stock    float64
	sales    map[uint]struct{}
}

// Calculate aggregates the completed sales of snap that fall inside the
// criteria range into one Item per grouping key. Items come out in order of
// first appearance: sales order first, then idle keys in product order.
func Calculate(snap Snapshot, crit Criteria, operatingRate float64) []Item {
	products := make(map[uint]Product, len(snap.Products))
	for _, p := range snap.Products {
		products[p.ID] = p
	}

	clients := clientLabels(snap.Sales)
	categories := toSet(crit.Categories)
	suppliers := toSet(crit.Suppliers)

	accs := make(map[string]*accumulator)
	order := make([]string, 0)

	get := func(key, label string) *accumulator {
		a, ok := accs[key]
		if !ok {
			a = &accumulator{key: key, label: label, sales: make(map[uint]struct{})}
			accs[key] = a
			order = append(order, key)
		}
		return a
	}

	for _, s := range snap.Sales {
		if !s.Completed || !inRange(s, crit) {
			continue
		}
		for _, l := range s.Lines {
			p, ok := products[l.ProductID]
			if !ok {
				// producto borrado: se conserva lo que trae la línea
				p = Product{ID: l.ProductID, Name: l.Name}
				if p.Name == "" {
					p.Name = fmt.Sprintf("Producto #%d", l.ProductID)
				}
			}
			if !matches(p, categories, suppliers) {
				continue
			}
			key, label, ok := groupKey(crit.Dimension, p, clients[s.ClientID])
			if !ok {
				continue
			}
			a := get(key, label)
			a.revenue += l.Subtotal
			a.cost += l.UnitCost * l.Quantity
			a.quantity += l.Quantity
			a.sales[s.ID] = struct{}{}
		}
	}

	if crit.Dimension != ByClient {
		for _, p := range snap.Products {
			if !matches(p, categories, suppliers) {
				continue
			}
			key, label, ok := groupKey(crit.Dimension, p, "")
			if !ok {
				continue
			}
			a, exists := accs[key]
			if !exists {
				if !crit.IncludeIdle {
					continue
				}
				a = get(key, label)
			}
			a.stock += p.Stock
		}
	}

	items := make([]Item, 0, len(order))
	for _, key := range order {
		it := derive(accs[key], operatingRate)
		if crit.HasMinMargin && it.GrossMarginPct < crit.MinMarginPct {
			continue
		}
		if crit.HasMinRevenue && it.Revenue < crit.MinRevenue {
			continue
		}
		items = append(items, it)
	}
	return items
}

func derive(a *accumulator, operatingRate float64) Item {
	it := Item{
		Key:      a.key,
		Category: a.label,
		Revenue:  a.revenue,
		Cost:     a.cost,
		Quantity: a.quantity,
		Sales:    len(a.sales),
		Stock:    a.stock,
	}
	it.GrossProfit = it.Revenue - it.Cost
	it.OperatingCost = it.Revenue * operatingRate
	it.NetProfit = it.GrossProfit - it.OperatingCost
	it.GrossMarginPct = pct(it.GrossProfit, it.Revenue)
	it.NetMarginPct = pct(it.NetProfit, it.Revenue)
	it.ROI = pct(it.NetProfit, it.Cost+it.OperatingCost)
	it.CostBenefit = ratio(it.Revenue, it.Cost+it.OperatingCost)
	it.AvgPrice = ratio(it.Revenue, it.Quantity)
	it.AvgCost = ratio(it.Cost, it.Quantity)
	it.UnitContribution = it.AvgPrice - it.AvgCost
	if it.Stock > 0 {
		it.Rotation = it.Quantity / it.Stock
	}
	return it
}

// groupKey returns the key and the display category of a line. Empty
// category and supplier names are not grouped. client is the label from
// clientLabels.
func groupKey(d Dimension, p Product, client string) (string, string, bool) {
	switch d {
	case ByCategory:
		c := strings.TrimSpace(p.Category)
		return c, c, c != ""
	case BySupplier:
		sp := strings.TrimSpace(p.Supplier)
		return sp, sp, sp != ""
	case ByClient:
		if client == "" {
			client = ClientWalkIn
		}
		return client, "", true
	default:
		return p.Name, p.Category, p.Name != ""
	}
}

// clientLabels gives every client id of sales one distinct label. Clients
// sharing a name are told apart by document, or by id when that is not
// enough. Id 0 is the walk-in public.
func clientLabels(sales []Sale) map[uint]string {
	names := map[uint]string{0: ClientWalkIn}
	docs := map[uint]string{}
	ids := []uint{0}
	for _, s := range sales {
		if _, ok := names[s.ClientID]; ok {
			continue
		}
		name := strings.TrimSpace(s.Client)
		if name == "" {
			name = fmt.Sprintf("Cliente #%d", s.ClientID)
		}
		names[s.ClientID] = name
		docs[s.ClientID] = strings.TrimSpace(s.ClientDoc)
		ids = append(ids, s.ClientID)
	}

	count := func(m map[uint]string) map[string]int {
		n := make(map[string]int, len(m))
		for _, v := range m {
			n[v]++
		}
		return n
	}

	labels := make(map[uint]string, len(names))
	byName := count(names)
	for _, id := range ids {
		label := names[id]
		if byName[label] > 1 && id != 0 {
			if docs[id] != "" {
				label = fmt.Sprintf("%s (%s)", label, docs[id])
			} else {
				label = fmt.Sprintf("%s #%d", label, id)
			}
		}
		labels[id] = label
	}
	byLabel := count(labels)
	for _, id := range ids {
		if byLabel[labels[id]] > 1 && id != 0 {
			labels[id] = fmt.Sprintf("%s #%d", labels[id], id)
		}
	}
	return labels
}

func inRange(s Sale, crit Criteria) bool {
	if !crit.From.IsZero() && s.Date.Before(crit.From) {
		return false
	}
	if !crit.To.IsZero() && s.Date.After(crit.To) {
		return false
	}
	return true
}

func matches(p Product, categories, suppliers map[string]struct{}) bool {
	if len(categories) > 0 {
		if _, ok := categories[strings.ToLower(strings.TrimSpace(p.Category))]; !ok {
			return false
		}
	}
	if len(suppliers) > 0 {
		if _, ok := suppliers[strings.ToLower(strings.TrimSpace(p.Supplier))]; !ok {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// Totals sums a result set.
type Totals struct {
	Items          int     `json:"items"`
	Revenue        float64 `json:"revenue"`
	Cost           float64 `json:"cost"`
	Quantity       float64 `json:"quantity"`
	GrossProfit    float64 `json:"gross_profit"`
	OperatingCost  float64 `json:"operating_cost"`
	NetProfit      float64 `json:"net_profit"`
	GrossMarginPct float64 `json:"gross_margin_pct"`
	NetMarginPct   float64 `json:"net_margin_pct"`
	ROI            float64 `json:"roi"`
}

func Summarize(items []Item) Totals {
	var t Totals
	t.Items = len(items)
	for _, it := range items {
		t.Revenue += it.Revenue
		t.Cost += it.Cost
		t.Quantity += it.Quantity
		t.GrossProfit += it.GrossProfit
		t.OperatingCost += it.OperatingCost
		t.NetProfit += it.NetProfit
	}
	t.GrossMarginPct = pct(t.GrossProfit, t.Revenue)
	t.NetMarginPct = pct(t.NetProfit, t.Revenue)
	t.ROI = pct(t.NetProfit, t.Cost+t.OperatingCost)
	return t
}
