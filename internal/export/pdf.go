package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	cuadraturadomain "github.com/smallbiznis/cuadra/internal/cuadratura/domain"
	"github.com/smallbiznis/cuadra/internal/format"
)

type summaryLine struct {
	label string
	value string
}

// SummaryPDF renders the headline totals of a reconciliation report.
func SummaryPDF(report cuadraturadomain.Report) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, "Cuadratura de Pagos", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(14,
		col.New(12).Add(
			text.New("Generado: "+format.Date(report.GeneratedAt), props.Text{Size: 9}),
			text.New("Filtro: "+describeFilter(report), props.Text{Size: 9, Top: 5}),
		),
	)

	if report.Empty {
		m.AddRow(12, text.NewCol(12, "Sin resultados para el filtro seleccionado.", props.Text{Size: 11, Top: 4}))
		return generate(m)
	}

	t := report.Totals
	sections := []struct {
		title string
		lines []summaryLine
	}{
		{
			title: "Productos",
			lines: []summaryLine{
				{"Productos", strconv.Itoa(t.Products)},
				{"Plazas pagadas", format.Integer(t.PaidSeats)},
				{"Total pagado nominal", format.Currency(t.NominalPaid)},
				{"Facturado asignado", format.Currency(t.Invoiced)},
				{"Diferencia", format.Currency(t.NominalDifference)},
				{"Productos con descuadre", strconv.Itoa(t.OutOfBalanceProducts)},
			},
		},
		{
			title: "Órdenes",
			lines: []summaryLine{
				{"Órdenes", strconv.Itoa(t.Orders)},
				{"Pagadas", strconv.Itoa(t.PaidOrders)},
				{"Con saldo", strconv.Itoa(t.PartialOrders)},
				{"Por facturar", strconv.Itoa(t.ToInvoiceOrders)},
				{"Por pagar (saldo > 0)", strconv.Itoa(t.ToPayOrders)},
				{"Canceladas", strconv.Itoa(t.CancelledOrders)},
				{"Pagado (facturas)", format.Currency(t.Paid)},
				{"Saldo adeudado", format.Currency(t.Owed)},
			},
		},
		{
			title: "Pagos",
			lines: []summaryLine{
				{"Origen", string(report.Source)},
				{"Aplicado a facturas pagadas", format.Currency(t.AppliedPaid)},
				{"Aplicado a facturas parciales", format.Currency(t.AppliedPartial)},
				{"Aplicado total", format.Currency(t.Applied)},
				{"Pagos únicos", format.Currency(t.UniquePayments)},
				{"Diferencia aplicado vs pagado", format.Currency(t.AppliedGap)},
			},
		},
	}

	for _, s := range sections {
		m.AddRow(12, text.NewCol(12, s.title, props.Text{Size: 12, Style: fontstyle.Bold, Top: 4}))
		for _, l := range s.lines {
			m.AddRow(7,
				text.NewCol(8, l.label, props.Text{Size: 9}),
				text.NewCol(4, l.value, props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	for _, w := range report.Warnings {
		m.AddRow(7, text.NewCol(12, w, props.Text{Size: 8, Style: fontstyle.Italic}))
	}

	return generate(m)
}

func generate(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func describeFilter(report cuadraturadomain.Report) string {
	f := report.Filter
	var parts []string
	add := func(label string, values ...string) {
		var kept []string
		for _, v := range values {
			if v != "" {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			parts = append(parts, label+": "+strings.Join(kept, ", "))
		}
	}
	add("Estado", f.Statuses...)
	add("Cupo", f.QuotaTypes...)
	add("Lote", f.Lot)
	add("Destino", f.Destinations...)
	add("Salida", f.DepartureMonths...)
	add("Código", f.ProductCode)
	if len(parts) == 0 {
		return "todos"
	}
	return strings.Join(parts, " | ")
}
