package service

import (
	"context"
	"testing"
	"time"

	auditdomain "github.com/smallbiznis/cuadra/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/occupancy/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Templates(ctx context.Context) ([]catalogdomain.Template, error) {
	args := m.Called(ctx)
	templates, _ := args.Get(0).([]catalogdomain.Template)
	return templates, args.Error(1)
}

func (m *mockCatalog) TemplateIDs(ctx context.Context, filter catalogdomain.Filter) ([]int64, error) {
	args := m.Called(ctx, filter)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *mockCatalog) Products(ctx context.Context, ids []int64, code string) ([]catalogdomain.Product, error) {
	args := m.Called(ctx, ids, code)
	products, _ := args.Get(0).([]catalogdomain.Product)
	return products, args.Error(1)
}

func (m *mockCatalog) Options(ctx context.Context) (catalogdomain.Options, error) {
	args := m.Called(ctx)
	return args.Get(0).(catalogdomain.Options), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Record(ctx context.Context, req auditdomain.RecordRequest) {
	m.Called(ctx, req)
}

func newTestService(t *testing.T, catalog catalogdomain.Service, audit auditdomain.Recorder) *Service {
	t.Helper()
	svc := New(Params{
		Log:     zaptest.NewLogger(t),
		Catalog: catalog,
		Config:  config.NewStaticDashboardConfigHolder(config.DefaultDashboardConfig()),
		Audit:   audit,
	}).(*Service)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func templates() []catalogdomain.Template {
	return []catalogdomain.Template{
		{ID: 1, Code: "PUC01", Destination: "Pucón", Status: "Activo", TotalSeats: 40, PaidSeats: 10, Departure: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Code: "ARI01", Destination: "Arica", Status: "Anulado", TotalSeats: 20, PaidSeats: 20},
	}
}

func TestReportAppliesFilter(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("Templates", mock.Anything).Return(templates(), nil)
	audit := new(mockAudit)
	audit.On("Record", mock.Anything, mock.MatchedBy(func(req auditdomain.RecordRequest) bool {
		return req.Page == domain.Page && req.Outcome == auditdomain.OutcomeOK && req.Totals != nil
	})).Once()

	svc := newTestService(t, catalog, audit)
	report, err := svc.Report(context.Background(), catalogdomain.Filter{Statuses: []string{" Activo "}})
	require.NoError(t, err)

	assert.False(t, report.Empty)
	assert.Equal(t, []string{"Activo"}, report.Filter.Statuses)
	assert.Equal(t, 1, report.Indicators.Packages)
	assert.Equal(t, 25.0, report.Indicators.Occupancy)
	require.Len(t, report.Packages, 1)
	assert.Equal(t, domain.UrgencyUrgent, report.Packages[0].Urgency)
	require.NotNil(t, report.Packages[0].DaysToDeparture)
	assert.Equal(t, 4, *report.Packages[0].DaysToDeparture)
	audit.AssertExpectations(t)
}

func TestReportEmptySelection(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("Templates", mock.Anything).Return(templates(), nil)
	audit := new(mockAudit)
	audit.On("Record", mock.Anything, mock.MatchedBy(func(req auditdomain.RecordRequest) bool {
		return req.Outcome == auditdomain.OutcomeEmpty && req.Totals == nil
	})).Once()

	svc := newTestService(t, catalog, audit)
	report, err := svc.Report(context.Background(), catalogdomain.Filter{Destinations: []string{"Iquique"}})
	require.NoError(t, err)
	assert.True(t, report.Empty)
	assert.Empty(t, report.Packages)
	audit.AssertExpectations(t)
}

func TestReportPropagatesERPErrors(t *testing.T) {
	remote := &erp.RemoteError{Message: "Access Denied"}
	catalog := new(mockCatalog)
	catalog.On("Templates", mock.Anything).Return(nil, remote)
	audit := new(mockAudit)
	audit.On("Record", mock.Anything, mock.MatchedBy(func(req auditdomain.RecordRequest) bool {
		return req.Outcome == auditdomain.OutcomeError && req.ErrorKind == erp.KindRemote
	})).Once()

	svc := newTestService(t, catalog, audit)
	_, err := svc.Report(context.Background(), catalogdomain.Filter{})
	assert.ErrorAs(t, err, new(*erp.RemoteError))
	audit.AssertExpectations(t)
}

func TestReportInvalidMonth(t *testing.T) {
	catalog := new(mockCatalog)
	svc := newTestService(t, catalog, nil)

	_, err := svc.Report(context.Background(), catalogdomain.Filter{DepartureMonths: []string{"03/2026"}})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidDepartureMonth)
	catalog.AssertNotCalled(t, "Templates", mock.Anything)
}
