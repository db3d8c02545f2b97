package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixtures() []Template {
	march := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	return []Template{
		{ID: 3, Status: "Activo", QuotaType: "Regular", Lot: "L1", Destination: "Pucón", Departure: march},
		{ID: 1, Status: "Validación", QuotaType: "Social", Lot: "L1", Destination: "Arica", Departure: april},
		{ID: 2, Status: "Cerrado", QuotaType: "Regular", Lot: "L2", Destination: "Pucón", Departure: april},
		{ID: 4, Status: "Activo", QuotaType: "Privado", Lot: "L2", Destination: "Arica"},
	}
}

func TestSelect(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{name: "empty filter matches all", filter: Filter{}, want: []int64{1, 2, 3, 4}},
		{name: "or within statuses", filter: Filter{Statuses: []string{"Activo", "Validación"}}, want: []int64{1, 3, 4}},
		{name: "and across dimensions", filter: Filter{Statuses: []string{"Activo"}, Destinations: []string{"Pucón"}}, want: []int64{3}},
		{name: "lot equality", filter: Filter{Lot: "L2"}, want: []int64{2, 4}},
		{name: "all lots sentinel", filter: Filter{Lot: "Todos"}, want: []int64{1, 2, 3, 4}},
		{name: "departure month skips undated", filter: Filter{DepartureMonths: []string{"2025-04"}}, want: []int64{1, 2}},
		{name: "quota type", filter: Filter{QuotaTypes: []string{"Privado"}}, want: []int64{4}},
		{name: "no match", filter: Filter{Statuses: []string{"Anulado"}}, want: []int64{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Select(fixtures(), tc.filter))
		})
	}
}

func TestSignatureIgnoresOrderAndSpacing(t *testing.T) {
	a := Filter{Statuses: []string{"Validación", "Activo"}, Lot: " L1 ", Destinations: []string{"Arica", "Arica"}}
	b := Filter{Statuses: []string{"Activo", "Validación "}, Lot: "L1", Destinations: []string{"Arica"}}
	assert.Equal(t, a.Signature(), b.Signature())

	c := b
	c.ProductCode = "CL100"
	assert.NotEqual(t, b.Signature(), c.Signature())
}

func TestValidateDepartureMonths(t *testing.T) {
	assert.NoError(t, Filter{DepartureMonths: []string{"2025-03"}}.Validate())
	assert.ErrorIs(t, Filter{DepartureMonths: []string{"March 2025"}}.Validate(), ErrInvalidDepartureMonth)
}
