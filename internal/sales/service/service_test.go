package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/erp/erptest"
	"github.com/smallbiznis/cuadra/internal/sales/domain"
	"github.com/smallbiznis/cuadra/internal/sales/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fixture() *erptest.Reader {
	return erptest.NewReader().
		Add(erp.ModelSaleOrder,
			erptest.Record{"id": 1, "name": "S00001", "state": "sale", "date_order": "2026-03-02 10:00:00", "invoice_status": "invoiced", "amount_total": 700000, "partner_id": []any{5, "Ana"}, "team_id": []any{7, "Norte"}},
			erptest.Record{"id": 2, "name": "S00002", "state": "done", "date_order": "2026-03-31 23:00:00", "invoice_status": "to invoice", "amount_total": 300000},
			erptest.Record{"id": 3, "name": "S00003", "state": "draft", "date_order": "2026-03-05 10:00:00", "invoice_status": "no", "amount_total": 1},
			erptest.Record{"id": 4, "name": "S00004", "state": "sale", "date_order": "2026-04-01 00:00:01", "invoice_status": "invoiced", "amount_total": 1},
		).
		Add(erp.ModelSaleOrderLine,
			erptest.Record{"id": 10, "order_id": []any{1, "S00001"}, "product_id": []any{100, "Pucón"}, "product_uom_qty": 2, "price_subtotal": 600000},
			erptest.Record{"id": 11, "order_id": []any{1, "S00001"}, "product_id": false, "product_uom_qty": 0, "price_subtotal": 0},
			erptest.Record{"id": 12, "order_id": []any{2, "S00002"}, "product_id": []any{101, "Arica"}, "product_uom_qty": 1, "price_subtotal": 300000},
			erptest.Record{"id": 13, "order_id": []any{3, "S00003"}, "product_id": []any{101, "Arica"}, "product_uom_qty": 1, "price_subtotal": 1},
		).
		Add(erp.ModelProduct,
			erptest.Record{"id": 100, "default_code": "PUC01", "name": "Pucón", "x_studio_destino": "Pucón", "x_studio_comision_agencia": 30000, "x_studio_estado_viaje": 3},
			erptest.Record{"id": 101, "default_code": "ARI01", "name": "Arica", "x_studio_destino": "Arica", "x_studio_comision_agencia": 25000, "x_studio_estado_viaje": "cerrado"},
		).
		Add(erp.ModelTeam,
			erptest.Record{"id": 7, "name": "Norte"},
			erptest.Record{"id": 8, "name": "Sur"},
		)
}

func newTestService(t *testing.T, reader erp.Reader) *Service {
	t.Helper()
	holder := config.NewStaticDashboardConfigHolder(config.DefaultDashboardConfig())
	svc := New(Params{
		Log:    zaptest.NewLogger(t),
		Repo:   repository.Provide(reader, holder),
		Config: holder,
	}).(*Service)
	svc.now = func() time.Time { return time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC) }
	return svc
}

func march() domain.Filter {
	return domain.Filter{From: "2026-03-01", To: "2026-03-31"}
}

func TestLinesJoinsConfirmedOrders(t *testing.T) {
	svc := newTestService(t, fixture())

	lines, err := svc.Lines(context.Background(), march())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	byCode := map[string]domain.Line{}
	for _, l := range lines {
		byCode[l.ProductCode] = l
	}
	puc := byCode["PUC01"]
	assert.Equal(t, "S00001", puc.Order)
	assert.Equal(t, "Norte", puc.Team)
	assert.Equal(t, "Activo", puc.Status)
	assert.Equal(t, "Totalmente facturado", puc.InvoiceStatusLabel)
	assert.True(t, decimal.NewFromInt(60000).Equal(puc.Commission))

	ari := byCode["ARI01"]
	assert.Equal(t, domain.NoTeam, ari.Team)
	assert.Equal(t, "cerrado", ari.Status)
}

func TestByDestination(t *testing.T) {
	svc := newTestService(t, fixture())

	report, err := svc.ByDestination(context.Background(), march())
	require.NoError(t, err)
	assert.False(t, report.Empty)
	assert.Equal(t, 2, report.Summary.All.Orders)
	assert.True(t, decimal.NewFromInt(900000).Equal(report.Summary.All.Sales))
	assert.True(t, decimal.NewFromInt(600000).Equal(report.Summary.Invoiced.Sales))
	assert.True(t, decimal.NewFromInt(300000).Equal(report.Summary.ToInvoice.Sales))
	require.Len(t, report.Destinations, 2)
	assert.Equal(t, "Pucón", report.Destinations[0].Destination)
	require.Len(t, report.Packages, 2)
}

func TestByAgencyWithTeamFilter(t *testing.T) {
	svc := newTestService(t, fixture())

	filter := march()
	filter.TeamID = 7
	report, err := svc.ByAgency(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, report.Agencies, 1)
	assert.Equal(t, "Norte", report.Agencies[0].Team)
	assert.True(t, decimal.NewFromInt(60000).Equal(report.Totals.Commission))
}

func TestEmptyRangeIsNotAnError(t *testing.T) {
	svc := newTestService(t, fixture())

	report, err := svc.ByDestination(context.Background(), domain.Filter{From: "2025-01-01", To: "2025-01-31"})
	require.NoError(t, err)
	assert.True(t, report.Empty)
	assert.Empty(t, report.Lines)
}

func TestInvalidRange(t *testing.T) {
	reader := fixture()
	svc := newTestService(t, reader)

	_, err := svc.ByAgency(context.Background(), domain.Filter{From: "2026-03-31", To: "2026-03-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	assert.Empty(t, reader.CallsTo(erp.ModelSaleOrder))
}

func TestTeams(t *testing.T) {
	svc := newTestService(t, fixture())

	teams, err := svc.Teams(context.Background())
	require.NoError(t, err)
	assert.Len(t, teams, 2)
}
