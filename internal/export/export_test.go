package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cuadra/internal/allocation"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	cuadraturadomain "github.com/smallbiznis/cuadra/internal/cuadratura/domain"
	occupancydomain "github.com/smallbiznis/cuadra/internal/occupancy/domain"
	reconciledomain "github.com/smallbiznis/cuadra/internal/reconcile/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() cuadraturadomain.Report {
	return cuadraturadomain.Report{
		Filter:      catalogdomain.Filter{Destinations: []string{"Pucón"}},
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Source:      reconciledomain.SourceReconcile,
		Products: []allocation.ProductRow{{
			Product:      catalogdomain.Product{Code: "CL100", Name: "Pucón doble", PaidSeats: 2, ListPrice: decimal.NewFromInt(300000)},
			NominalPaid:  decimal.NewFromInt(600000),
			Invoiced:     decimal.NewFromInt(500000),
			Difference:   decimal.NewFromInt(100000),
			OutOfBalance: true,
		}},
		Orders: []reconciledomain.OrderRow{{
			Order: "S00050", Codes: []string{"CL100", "CL101"}, Quantity: 3,
			Invoiced: decimal.NewFromInt(1000), Paid: decimal.NewFromInt(1000),
		}},
		Payments: []reconciledomain.PaymentRow{{
			Invoice: "INV/2026/0001", Applied: decimal.NewFromInt(1000), InvoicePaymentState: "paid",
		}},
		Allocations: []allocation.Allocation{{Code: "CL100", Invoiced: decimal.NewFromInt(300)}},
		Totals:      allocation.Totals{Products: 1, Orders: 1, PaidOrders: 1, Paid: decimal.NewFromInt(1000)},
	}
}

func TestCuadraturaTables(t *testing.T) {
	report := sampleReport()

	for _, name := range []string{TableProducts, TableOrders, TablePayments, TableAllocations} {
		table, err := CuadraturaTable(report, name)
		require.NoError(t, err, name)
		require.Len(t, table.Rows, 1, name)
		for _, row := range table.Rows {
			assert.Len(t, row, len(table.Columns), name)
		}
	}

	products, _ := CuadraturaTable(report, TableProducts)
	assert.Equal(t, "$600.000", products.Rows[0][8])
	assert.Equal(t, "Sí", products.Rows[0][11])

	orders, _ := CuadraturaTable(report, TableOrders)
	assert.Equal(t, "CL100, CL101", orders.Rows[0][7])

	_, err := CuadraturaTable(report, "summary")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestCSV(t *testing.T) {
	table, err := CuadraturaTable(sampleReport(), TableAllocations)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, table))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Código", "Facturado Asignado"},
		{"CL100", "$300"},
	}, records)
}

func TestOccupancyTable(t *testing.T) {
	days := 4
	report := occupancydomain.Report{Packages: []occupancydomain.Package{{
		Template:        catalogdomain.Template{Code: "PUC01", TotalSeats: 40, PaidSeats: 10},
		Occupancy:       25,
		DaysToDeparture: &days,
	}}}
	table := OccupancyTable(report)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "4", table.Rows[0][6])
	assert.Equal(t, "25,0%", table.Rows[0][11])
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "cuadratura-products-pucon-2026-03-01.csv", FileName("cuadratura", "products", "Pucón", "csv", at))
	assert.Equal(t, "occupancy-2026-03-01.csv", FileName("occupancy", "", "", ".csv", at))
}

func TestSummaryPDF(t *testing.T) {
	raw, err := SummaryPDF(sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	empty, err := SummaryPDF(cuadraturadomain.Report{Empty: true})
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}

func TestDescribeFilter(t *testing.T) {
	assert.Equal(t, "todos", describeFilter(cuadraturadomain.Report{}))
	assert.Equal(t, "Destino: Pucón", describeFilter(sampleReport()))
}
