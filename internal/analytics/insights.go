package analytics

import (
	"fmt"
	"math"
)

const noSalesInsight = "No hay ventas en el período seleccionado."

// ABCInsights describes a classified list (as returned by ClassifyABC).
func ABCInsights(items []Item, m Metric, paretoThreshold float64) []string {
	if len(items) == 0 {
		return []string{noSalesInsight}
	}

	count := map[Class]int{}
	share := map[Class]float64{}
	var revA, profitA float64
	for _, it := range items {
		count[it.Class]++
		share[it.Class] += it.SharePct
		if it.Class == ClassA {
			revA += it.Revenue
			profitA += it.GrossProfit
		}
	}

	n := len(items)
	out := make([]string, 0, 6)

	out = append(out, fmt.Sprintf(
		"Distribución: clase A %d (%.1f%% del valor), clase B %d (%.1f%%), clase C %d (%.1f%%).",
		count[ClassA], share[ClassA], count[ClassB], share[ClassB], count[ClassC], share[ClassC]))

	top := int(math.Ceil(float64(n) * 0.2))
	if top < 1 {
		top = 1
	}
	concentration := items[top-1].CumulativePct
	if concentration >= paretoThreshold {
		out = append(out, fmt.Sprintf(
			"Se cumple la regla de Pareto: el 20%% superior (%d de %d) concentra el %.1f%% del valor.",
			top, n, concentration))
	} else {
		out = append(out, fmt.Sprintf(
			"No se cumple la regla de Pareto: el 20%% superior (%d de %d) concentra solo el %.1f%% del valor (umbral %.0f%%).",
			top, n, concentration, paretoThreshold))
	}

	first := items[0]
	out = append(out, fmt.Sprintf("Mayor aporte: %s con %s (%.1f%% del total).",
		first.Key, m.Format(m.Value(first)), first.SharePct))
	if n > 1 {
		last := items[n-1]
		out = append(out, fmt.Sprintf("Menor aporte: %s con %s (%.1f%% del total).",
			last.Key, m.Format(m.Value(last)), last.SharePct))
	}

	marginA := pct(profitA, revA)
	switch {
	case count[ClassA] == 0:
	case marginA < 15:
		out = append(out, fmt.Sprintf(
			"Margen bruto de la clase A bajo (%.1f%%): revisar precios o costos de los elementos clave.", marginA))
	case marginA < 30:
		out = append(out, fmt.Sprintf("Margen bruto de la clase A aceptable (%.1f%%).", marginA))
	default:
		out = append(out, fmt.Sprintf("Margen bruto de la clase A saludable (%.1f%%).", marginA))
	}

	if count[ClassC]*2 > n {
		out = append(out, fmt.Sprintf(
			"Recomendación: depurar el surtido; %d elementos clase C aportan solo el %.1f%% del valor.",
			count[ClassC], share[ClassC]))
	} else {
		out = append(out, fmt.Sprintf(
			"Recomendación: asegurar inventario y exhibición de los %d elementos clase A.", count[ClassA]))
	}
	return out
}

// ProfitabilityInsights describes a tiered list ranked by m.
func ProfitabilityInsights(items []Item, m Metric) []string {
	if len(items) == 0 {
		return []string{noSalesInsight}
	}

	count := map[Tier]int{}
	var worstLoss *Item
	bestROI := items[0]
	for i := range items {
		it := items[i]
		count[it.Tier]++
		if it.Tier == TierLoss && (worstLoss == nil || it.NetProfit < worstLoss.NetProfit) {
			worstLoss = &items[i]
		}
		if it.ROI > bestROI.ROI {
			bestROI = it
		}
	}
	t := Summarize(items)
	n := len(items)

	out := make([]string, 0, 6)
	out = append(out, fmt.Sprintf(
		"Rentabilidad: %d alta, %d media, %d baja, %d con pérdida.",
		count[TierHigh], count[TierMedium], count[TierLow], count[TierLoss]))
	out = append(out, fmt.Sprintf(
		"Utilidad neta total %s sobre ventas de %s (margen neto %.1f%%, ROI %.1f%%).",
		money(t.NetProfit), money(t.Revenue), t.NetMarginPct, t.ROI))
	out = append(out, fmt.Sprintf("Mejor %s: %s (%s).",
		m.Label(), items[0].Key, m.Format(m.Value(items[0]))))
	if n > 1 {
		out = append(out, fmt.Sprintf("Peor %s: %s (%s).",
			m.Label(), items[n-1].Key, m.Format(m.Value(items[n-1]))))
	}

	switch {
	case t.NetMarginPct < 5:
		out = append(out, fmt.Sprintf(
			"Margen neto global crítico (%.1f%%): los costos operativos absorben casi toda la utilidad.", t.NetMarginPct))
	case t.NetMarginPct < 10:
		out = append(out, fmt.Sprintf("Margen neto global ajustado (%.1f%%).", t.NetMarginPct))
	default:
		out = append(out, fmt.Sprintf("Margen neto global saludable (%.1f%%).", t.NetMarginPct))
	}

	if worstLoss != nil {
		out = append(out, fmt.Sprintf(
			"Recomendación: revisar precios de %d elementos con pérdida, empezando por %s (%s).",
			count[TierLoss], worstLoss.Key, money(worstLoss.NetProfit)))
	} else {
		out = append(out, fmt.Sprintf(
			"Recomendación: impulsar la venta de %s, el elemento con mayor ROI (%.1f%%).",
			bestROI.Key, bestROI.ROI))
	}
	return out
}

// BreakEvenInsights describes items classified by ClassifyEquilibrium and
// the business-wide break-even point.
func BreakEvenInsights(items []Item, b BusinessBreakEven) []string {
	if len(items) == 0 {
		return []string{noSalesInsight}
	}

	count := map[Equilibrium]int{}
	var gapItem *Item
	gap := 0.0
	var negative *Item
	for i := range items {
		it := &items[i]
		count[it.Equilibrium]++
		if it.Equilibrium == Deficit || it.Equilibrium == NearBreakEven {
			if g := it.BreakEvenUnits - it.ProjectedUnits; g > gap {
				gap = g
				gapItem = it
			}
		}
		if it.Equilibrium == NegativeMargin && negative == nil {
			negative = it
		}
	}

	out := make([]string, 0, 5)
	out = append(out, fmt.Sprintf(
		"Equilibrio: %d rentables, %d cerca, %d en déficit, %d con margen negativo.",
		count[Profitable], count[NearBreakEven], count[Deficit], count[NegativeMargin]))

	if b.ContributionRatio <= 0 {
		out = append(out, "El negocio opera con margen de contribución negativo: no existe punto de equilibrio.")
	} else {
		out = append(out, fmt.Sprintf(
			"Punto de equilibrio del negocio: %s en ventas; ventas actuales %s (margen de seguridad %.1f%%).",
			money(b.BreakEvenRevenue), money(b.Revenue), b.SafetyMarginPct))
	}

	if gapItem != nil {
		out = append(out, fmt.Sprintf(
			"Mayor brecha: %s necesita %.0f unidades más por periodo para alcanzar el equilibrio.",
			gapItem.Key, math.Ceil(gap)))
	}
	if negative != nil {
		out = append(out, fmt.Sprintf(
			"%s se vende por debajo de su costo (contribución unitaria %s).",
			negative.Key, money(negative.UnitContribution)))
	}

	switch {
	case count[NegativeMargin] > 0:
		out = append(out, "Recomendación: corregir primero los precios con margen negativo.")
	case count[Deficit] > count[Profitable]:
		out = append(out, "Recomendación: reducir costos fijos o concentrar la oferta en los elementos rentables.")
	default:
		out = append(out, "Recomendación: mantener precios y vigilar los elementos cercanos al equilibrio.")
	}
	return out
}
