package service

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/catalog/repository"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/erp/erptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func seededReader() *erptest.Reader {
	return erptest.NewReader().
		Add(erp.ModelProductTemplate,
			erptest.Record{"id": 10, "name": "Pucón Marzo", "x_studio_estado_viaje": 3, "x_studio_tipo_de_cupo": "Regular", "x_studio_lote": "L1", "x_studio_destino": "Pucón", "x_studio_ida_fecha_salida": "2025-03-14"},
			erptest.Record{"id": 11, "name": "Arica Abril", "x_studio_estado_viaje": "4", "x_studio_tipo_de_cupo": "Social", "x_studio_lote": "L1", "x_studio_destino": "Arica", "x_studio_ida_fecha_salida": "2025-04-02"},
			erptest.Record{"id": 12, "name": "Sin estado", "x_studio_estado_viaje": false, "x_studio_destino": "Arica"},
			erptest.Record{"id": 13, "name": "Estado nuevo", "x_studio_estado_viaje": 42, "x_studio_destino": "Pucón"},
		).
		Add(erp.ModelProduct,
			erptest.Record{"id": 100, "product_tmpl_id": []any{10, "Pucón Marzo"}, "default_code": "CL100", "name": "Pucón Marzo", "list_price": 250000, "x_studio_estado_viaje": 3, "x_product_count_pagados_stat_inf": 4},
			erptest.Record{"id": 101, "product_tmpl_id": []any{10, "Pucón Marzo"}, "default_code": "CL101", "name": "Pucón Marzo (single)", "list_price": 300000},
			erptest.Record{"id": 110, "product_tmpl_id": []any{11, "Arica Abril"}, "default_code": "CL110", "name": "Arica Abril", "list_price": 180000},
		)
}

func newTestService(t *testing.T, reader erp.Reader) domain.Service {
	t.Helper()
	holder := config.NewStaticDashboardConfigHolder(config.DefaultDashboardConfig())
	return New(Params{
		Log:    zaptest.NewLogger(t),
		Repo:   repository.Provide(reader, holder),
		Config: holder,
	})
}

func TestTemplatesResolveStatusLabels(t *testing.T) {
	svc := newTestService(t, seededReader())

	templates, err := svc.Templates(context.Background())
	require.NoError(t, err)

	labels := map[int64]string{}
	for _, tpl := range templates {
		labels[tpl.ID] = tpl.Status
	}
	assert.Equal(t, map[int64]string{10: "Activo", 11: "Validación", 12: "No definido", 13: "Estado 42"}, labels)
}

func TestTemplateIDs(t *testing.T) {
	svc := newTestService(t, seededReader())

	ids, err := svc.TemplateIDs(context.Background(), domain.Filter{Statuses: []string{"Activo", "Validación"}})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, ids)

	_, err = svc.TemplateIDs(context.Background(), domain.Filter{Destinations: []string{"Iquique"}})
	assert.ErrorIs(t, err, domain.ErrNoTemplates)
	assert.True(t, domain.IsEmpty(err))
}

func TestProducts(t *testing.T) {
	reader := seededReader()
	svc := newTestService(t, reader)

	products, err := svc.Products(context.Background(), []int64{10, 11}, "")
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, int64(10), products[0].TemplateID)
	assert.Equal(t, "250000", products[0].ListPrice.String())
	assert.Equal(t, float64(4), products[0].PaidSeats)
	assert.Equal(t, "Activo", products[0].Status)

	products, err = svc.Products(context.Background(), []int64{10, 11}, " CL101 ")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(101), products[0].ID)

	_, err = svc.Products(context.Background(), []int64{10}, "CL999")
	assert.ErrorIs(t, err, domain.ErrNoProducts)

	calls := reader.CallsTo(erp.ModelProduct)
	require.NotEmpty(t, calls)
	assert.Equal(t, erp.Domain{erp.In("product_tmpl_id", []int64{10, 11})}, calls[0].Domain)
}

func TestOptions(t *testing.T) {
	svc := newTestService(t, seededReader())

	opts, err := svc.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Activo", "Estado 42", "No definido", "Validación"}, opts.Statuses)
	assert.Equal(t, []string{"Activo", "Validación"}, opts.DefaultStatuses)
	assert.Equal(t, []string{"2025-04", "2025-03"}, opts.DepartureMonths)
	assert.Equal(t, []string{"Arica", "Pucón"}, opts.Destinations)
	assert.Equal(t, []string{"L1"}, opts.Lots)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	args := m.Called(ctx)
	templates, _ := args.Get(0).([]domain.Template)
	return templates, args.Error(1)
}

func (m *mockRepository) ListProducts(ctx context.Context, ids []int64) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	products, _ := args.Get(0).([]domain.Product)
	return products, args.Error(1)
}

func TestRemoteFailureIsNotEmptyResult(t *testing.T) {
	repo := &mockRepository{}
	remote := &erp.RemoteError{Code: 200, Message: "Odoo Server Error", Exception: "builtins.ValueError"}
	repo.On("ListTemplates", mock.Anything).Return(nil, remote)

	svc := New(Params{Log: zaptest.NewLogger(t), Repo: repo, Config: config.NewStaticDashboardConfigHolder(config.DefaultDashboardConfig())})
	_, err := svc.TemplateIDs(context.Background(), domain.Filter{})

	require.Error(t, err)
	assert.False(t, domain.IsEmpty(err))
	var target *erp.RemoteError
	assert.True(t, errors.As(err, &target))
	repo.AssertExpectations(t)
}

func TestProductsWithoutTemplatesSkipsRemote(t *testing.T) {
	repo := &mockRepository{}
	svc := New(Params{Log: zaptest.NewLogger(t), Repo: repo, Config: config.NewStaticDashboardConfigHolder(config.DefaultDashboardConfig())})

	_, err := svc.Products(context.Background(), nil, "")
	assert.ErrorIs(t, err, domain.ErrNoTemplates)
	repo.AssertNotCalled(t, "ListProducts", mock.Anything, mock.Anything)
}

func TestMalformedDepartureKeepsTemplate(t *testing.T) {
	reader := erptest.NewReader().
		Add(erp.ModelProductTemplate,
			erptest.Record{"id": 10, "name": "Pucón Marzo", "x_studio_estado_viaje": 3, "x_studio_destino": "Pucón", "x_studio_ida_fecha_salida": "2025-03-14"},
			erptest.Record{"id": 11, "name": "Arica Marzo", "x_studio_estado_viaje": 3, "x_studio_destino": "Arica", "x_studio_ida_fecha_salida": "15/03/2025"},
		)
	core, logs := observer.New(zap.WarnLevel)
	holder := config.NewStaticDashboardConfigHolder(config.DefaultDashboardConfig())
	svc := New(Params{
		Log:    zap.New(core),
		Repo:   repository.Provide(reader, holder),
		Config: holder,
	})

	templates, err := svc.Templates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 2)

	byID := map[int64]domain.Template{}
	for _, tpl := range templates {
		byID[tpl.ID] = tpl
	}
	assert.Equal(t, "2025-03", byID[10].DepartureMonth())
	assert.True(t, byID[11].Departure.IsZero())
	assert.Equal(t, "", byID[11].DepartureMonth())

	warnings := logs.FilterMessage("unparsable departure date").All()
	require.Len(t, warnings, 1)
	fields := warnings[0].ContextMap()
	assert.Equal(t, int64(11), fields["id"])
	assert.Equal(t, "x_studio_ida_fecha_salida", fields["field"])
	assert.Equal(t, "15/03/2025", fields["value"])

	ids, err := svc.TemplateIDs(context.Background(), domain.Filter{Destinations: []string{"Arica"}})
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, ids)

	opts, err := svc.Options(context.Background())
	require.NoError(t, err)
	assert.Contains(t, opts.Destinations, "Arica")
}
