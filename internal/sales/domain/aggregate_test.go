package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func sampleLines() []Line {
	three := 3
	return []Line{
		{OrderID: 1, InvoiceStatus: InvoiceStatusInvoiced, TeamID: 7, Team: "Norte", ProductCode: "PUC01", Destination: "Pucón", StatusCode: &three, Passengers: 2, Subtotal: d("600000"), Commission: d("60000")},
		{OrderID: 1, InvoiceStatus: InvoiceStatusInvoiced, TeamID: 7, Team: "Norte", ProductCode: "ARI01", Destination: "Arica", Passengers: 1, Subtotal: d("250000"), Commission: d("20000")},
		{OrderID: 2, InvoiceStatus: InvoiceStatusToInvoice, TeamID: 0, Team: NoTeam, ProductCode: "PUC01", Destination: "Pucón", StatusCode: &three, Passengers: 3, Subtotal: d("900000"), Commission: d("90000")},
		{OrderID: 3, InvoiceStatus: "no", TeamID: 8, Team: "Sur", ProductCode: "CHI01", Destination: "Chiloé", QuotaType: "Grupal", Passengers: 1, Subtotal: d("100000"), Commission: d("5000")},
	}
}

func TestSummarizeSplitsByInvoiceStatus(t *testing.T) {
	s := Summarize(sampleLines())

	assert.True(t, d("1850000").Equal(s.All.Sales))
	assert.True(t, d("175000").Equal(s.All.Commission))
	assert.Equal(t, 7.0, s.All.Passengers)
	assert.Equal(t, 3, s.All.Orders)

	assert.Equal(t, 1, s.Invoiced.Orders)
	assert.True(t, d("850000").Equal(s.Invoiced.Sales))
	assert.Equal(t, 1, s.ToInvoice.Orders)
	assert.True(t, d("90000").Equal(s.ToInvoice.Commission))
}

func TestByDestination(t *testing.T) {
	out := ByDestination(sampleLines())
	require.Len(t, out, 3)
	assert.Equal(t, "Pucón", out[0].Destination)
	assert.Equal(t, 2, out[0].Orders)
	assert.Equal(t, 5.0, out[0].Passengers)
	assert.Equal(t, "Arica", out[1].Destination)
	assert.Equal(t, "Chiloé", out[2].Destination)
}

func TestByPackage(t *testing.T) {
	out := ByPackage(sampleLines())
	require.Len(t, out, 3)
	assert.Equal(t, "PUC01", out[0].ProductCode)
	assert.True(t, d("1500000").Equal(out[0].Sales))
}

func TestByAgency(t *testing.T) {
	out := ByAgency(sampleLines())
	require.Len(t, out, 3)
	assert.Equal(t, NoTeam, out[0].Team)
	assert.Equal(t, "Norte", out[1].Team)
	assert.Equal(t, 1, out[1].Orders)
	assert.True(t, d("80000").Equal(out[1].Commission))
	assert.Equal(t, "Sur", out[2].Team)
}

func TestFilterApply(t *testing.T) {
	lines := sampleLines()

	got := Filter{StatusCodes: []int{3}}.Normalize().Apply(lines)
	assert.Len(t, got, 2)

	got = Filter{QuotaTypes: []string{"Grupal"}}.Normalize().Apply(lines)
	require.Len(t, got, 1)
	assert.Equal(t, "CHI01", got[0].ProductCode)

	got = Filter{Destinations: []string{" Arica "}, Lot: "Todos"}.Normalize().Apply(lines)
	assert.Len(t, got, 1)
}

func TestFilterRange(t *testing.T) {
	now := time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)

	from, to, err := Filter{}.Range(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC), to)

	_, _, err = Filter{From: "2026-03-10", To: "2026-03-01"}.Range(now)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, _, err = Filter{From: "10/03/2026"}.Range(now)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestFilterSignatureIgnoresOrder(t *testing.T) {
	a := Filter{Destinations: []string{"Arica", "Pucón"}, StatusCodes: []int{4, 3}}
	b := Filter{Destinations: []string{"Pucón ", "Arica"}, StatusCodes: []int{3, 4, 4}}
	assert.Equal(t, a.Signature(), b.Signature())
}
