package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cuadra/internal/allocation"
	occupancydomain "github.com/smallbiznis/cuadra/internal/occupancy/domain"
	reconciledomain "github.com/smallbiznis/cuadra/internal/reconcile/domain"
	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "$0"},
		{in: "999", want: "$999"},
		{in: "1000", want: "$1.000"},
		{in: "1234567.89", want: "$1.234.567"},
		{in: "-25000.5", want: "-$25.000"},
		{in: "100000000", want: "$100.000.000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Currency(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestInteger(t *testing.T) {
	assert.Equal(t, "0", Integer(0))
	assert.Equal(t, "1.234", Integer(1234.9))
	assert.Equal(t, "-12.000", Integer(-12000))
}

func TestPercentAndDate(t *testing.T) {
	assert.Equal(t, "82,5%", Percent(82.5))
	assert.Equal(t, "0,0%", Percent(0))
	assert.Equal(t, "14/03/2026", Date(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", Date(time.Time{}))
}

func TestOrderStyle(t *testing.T) {
	owed := reconciledomain.OrderRow{Owed: decimal.NewFromInt(10), InvoiceStatusCode: "no"}
	assert.Equal(t, StyleWarning, OrderStyle(owed))
	assert.Equal(t, StyleDanger, OrderStyle(reconciledomain.OrderRow{InvoiceStatusCode: "no"}))
	assert.Equal(t, StyleInfo, OrderStyle(reconciledomain.OrderRow{InvoiceStatusCode: "to invoice"}))
	assert.Equal(t, StyleNone, OrderStyle(reconciledomain.OrderRow{InvoiceStatusCode: "invoiced"}))
}

func TestRowStyles(t *testing.T) {
	assert.Equal(t, StyleDanger, ProductStyle(allocation.ProductRow{OutOfBalance: true}))
	assert.Equal(t, StyleNone, ProductStyle(allocation.ProductRow{}))
	assert.Equal(t, StyleWarning, PaymentStyle(reconciledomain.PaymentRow{InvoicePaymentState: "Partial"}))
	assert.Equal(t, StyleNone, PaymentStyle(reconciledomain.PaymentRow{InvoicePaymentState: "paid"}))
	assert.Equal(t, StyleSuccess, BandStyle(occupancydomain.BandHigh))
	assert.Equal(t, StyleDanger, UrgencyStyle(occupancydomain.UrgencyUrgent))
	assert.Equal(t, StyleMuted, UrgencyStyle(occupancydomain.UrgencyDeparted))
}
