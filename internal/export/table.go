package export

import (
	"errors"
	"strconv"
	"strings"

	"github.com/smallbiznis/cuadra/internal/allocation"
	cuadraturadomain "github.com/smallbiznis/cuadra/internal/cuadratura/domain"
	"github.com/smallbiznis/cuadra/internal/format"
	occupancydomain "github.com/smallbiznis/cuadra/internal/occupancy/domain"
	reconciledomain "github.com/smallbiznis/cuadra/internal/reconcile/domain"
	salesdomain "github.com/smallbiznis/cuadra/internal/sales/domain"
)

var ErrUnknownTable = errors.New("unknown_table")

// Table names of the reconciliation report.
const (
	TableProducts    = "products"
	TableOrders      = "orders"
	TablePayments    = "payments"
	TableAllocations = "allocations"
)

// Table is a rendered tabular result. Every cell is already formatted.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// CuadraturaTable renders one table of a reconciliation report.
func CuadraturaTable(report cuadraturadomain.Report, name string) (Table, error) {
	switch name {
	case TableProducts:
		return productsTable(report.Products), nil
	case TableOrders:
		return ordersTable(report.Orders), nil
	case TablePayments:
		return paymentsTable(report.Payments), nil
	case TableAllocations:
		return allocationsTable(report.Allocations), nil
	}
	return Table{}, ErrUnknownTable
}

func productsTable(rows []allocation.ProductRow) Table {
	t := Table{
		Name: TableProducts,
		Columns: []string{
			"Código", "Producto", "Lote", "Destino", "Estado", "Fecha Salida",
			"Plazas Pagadas", "Precio", "Total Pagado", "Facturado", "Diferencia", "Descuadre",
		},
	}
	for _, p := range rows {
		t.Rows = append(t.Rows, []string{
			p.Code, p.Name, p.Lot, p.Destination, p.Status, format.Date(p.Departure),
			format.Integer(p.PaidSeats), format.Currency(p.ListPrice), format.Currency(p.NominalPaid),
			format.Currency(p.Invoiced), format.Currency(p.Difference), yesNo(p.OutOfBalance),
		})
	}
	return t
}

func ordersTable(rows []reconciledomain.OrderRow) Table {
	t := Table{
		Name: TableOrders,
		Columns: []string{
			"Orden", "Estado", "Cliente", "Fecha", "Agencia", "Vendedor", "Estado Facturación",
			"Códigos", "Cantidad", "Subtotal", "Facturado", "Pagado", "Saldo Adeudado", "Estado Pago",
		},
	}
	for _, o := range rows {
		t.Rows = append(t.Rows, []string{
			o.Order, o.State, o.Customer, format.Date(o.DateOrder), o.Agency, o.Salesperson,
			o.InvoiceStatus, strings.Join(o.Codes, ", "), strconv.FormatInt(o.Quantity, 10),
			format.Currency(o.Subtotal), format.Currency(o.Invoiced), format.Currency(o.Paid),
			format.Currency(o.Owed), strings.Join(o.PaymentStates, ", "),
		})
	}
	return t
}

func paymentsTable(rows []reconciledomain.PaymentRow) Table {
	t := Table{
		Name: TablePayments,
		Columns: []string{
			"Factura", "Origen", "Códigos", "Estado Pago Factura", "Pago", "Fecha Pago",
			"Fecha Conciliación", "Diario", "Referencia", "Cliente", "Monto Pago", "Aplicado",
		},
	}
	for _, p := range rows {
		t.Rows = append(t.Rows, []string{
			p.Invoice, p.InvoiceOrigin, strings.Join(p.Codes, ", "), p.InvoicePaymentState,
			p.Payment, format.Date(p.PaymentDate), format.Date(p.ReconciledAt), p.Journal,
			p.Reference, p.Customer, format.Currency(p.PaymentAmount), format.Currency(p.Applied),
		})
	}
	return t
}

func allocationsTable(rows []allocation.Allocation) Table {
	t := Table{Name: TableAllocations, Columns: []string{"Código", "Facturado Asignado"}}
	for _, a := range rows {
		t.Rows = append(t.Rows, []string{a.Code, format.Currency(a.Invoiced)})
	}
	return t
}

// OccupancyTable renders the package detail of an occupancy report.
func OccupancyTable(report occupancydomain.Report) Table {
	t := Table{
		Name: "packages",
		Columns: []string{
			"Código", "Nombre Paquete", "Destino", "Lote", "Estado", "Fecha Salida", "Días Restantes",
			"Plazas Totales", "Plazas Pagadas", "Plazas Reservadas", "Plazas Disponibles",
			"Ocupación", "Precio", "Comisión Agencia",
		},
	}
	for _, p := range report.Packages {
		days := ""
		if p.DaysToDeparture != nil {
			days = strconv.Itoa(*p.DaysToDeparture)
		}
		t.Rows = append(t.Rows, []string{
			p.Code, p.Name, p.Destination, p.Lot, p.Status, format.Date(p.Departure), days,
			format.Integer(p.TotalSeats), format.Integer(p.PaidSeats), format.Integer(p.ReservedSeats),
			format.Integer(p.AvailableSeats), format.Percent(p.Occupancy),
			format.Currency(p.ListPrice), format.Currency(p.AgencyCommission),
		})
	}
	return t
}

// SalesTable renders sales lines.
func SalesTable(lines []salesdomain.Line) Table {
	t := Table{
		Name: "sales",
		Columns: []string{
			"Número", "Cliente", "Fecha", "Estado", "Vendedor", "Agencia", "Código Paquete",
			"Nombre Paquete", "Lote", "Destino", "Pasajeros", "Subtotal", "Comisión",
		},
	}
	for _, l := range lines {
		t.Rows = append(t.Rows, []string{
			l.Order, l.Customer, format.Date(l.Date), l.InvoiceStatusLabel, l.Salesperson, l.Team,
			l.ProductCode, l.ProductName, l.Lot, l.Destination, format.Integer(l.Passengers),
			format.Currency(l.Subtotal), format.Currency(l.Commission),
		})
	}
	return t
}

func yesNo(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}
