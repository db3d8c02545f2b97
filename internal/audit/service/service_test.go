package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/cuadra/internal/audit/domain"
	"github.com/smallbiznis/cuadra/internal/audit/repository"
	"github.com/smallbiznis/cuadra/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&auditdomain.Run{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    conn,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Repo:  repository.Provide(),
	}).(*Service)

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, conn
}

type reportTotals struct {
	Applied string `json:"applied"`
	Orders  int    `json:"orders"`
}

func TestRecordPersistsRun(t *testing.T) {
	svc, conn := newTestService(t)

	run, err := svc.Record(context.Background(), auditdomain.RecordRequest{
		Page:      "cuadratura",
		Session:   "0123456789abcdef",
		Signature: `{"statuses":["Activo"]}`,
		Filter:    map[string]any{"statuses": []string{"Activo"}},
		Outcome:   auditdomain.OutcomeOK,
		Source:    "reconcile",
		Totals:    reportTotals{Applied: "1000", Orders: 1},
		Duration:  1500 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.NotZero(t, run.ID)

	var stored auditdomain.Run
	require.NoError(t, conn.First(&stored, "id = ?", run.ID).Error)
	assert.Equal(t, "cuadratura", stored.Page)
	assert.Equal(t, "****cdef", stored.Session)
	assert.Equal(t, int64(1500), stored.DurationMS)
	assert.Equal(t, "1000", stored.Totals["applied"])
	assert.Equal(t, float64(1), stored.Totals["orders"])
}

func TestRecordMasksSessionInErrors(t *testing.T) {
	svc, _ := newTestService(t)

	run, err := svc.Record(context.Background(), auditdomain.RecordRequest{
		Page:      "cuadratura",
		Session:   "0123456789abcdef",
		Outcome:   auditdomain.OutcomeError,
		Err:       errors.New("session 0123456789abcdef: erp remote error"),
		ErrorKind: "remote",
	})
	require.NoError(t, err)
	assert.Equal(t, "session ****cdef: erp remote error", run.ErrorMessage)
	assert.Equal(t, "remote", run.ErrorKind)
}

func TestRecordValidates(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Record(context.Background(), auditdomain.RecordRequest{Outcome: auditdomain.OutcomeOK})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPage)

	_, err = svc.Record(context.Background(), auditdomain.RecordRequest{Page: "occupancy", Outcome: "done"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidOutcome)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, page := range []string{"cuadratura", "occupancy", "cuadratura", "cuadratura"} {
		_, err := svc.Record(ctx, auditdomain.RecordRequest{Page: page, Outcome: auditdomain.OutcomeOK})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, auditdomain.ListRunsRequest{Page: "cuadratura", Pagination: paginationOf("", 2)})
	require.NoError(t, err)
	require.Len(t, first.Runs, 2)
	assert.True(t, first.HasMore)
	assert.True(t, first.Runs[0].CreatedAt.After(first.Runs[1].CreatedAt))

	second, err := svc.List(ctx, auditdomain.ListRunsRequest{Page: "cuadratura", Pagination: paginationOf(first.NextPageToken, 2)})
	require.NoError(t, err)
	require.Len(t, second.Runs, 1)
	assert.False(t, second.HasMore)
	assert.True(t, second.Runs[0].CreatedAt.Before(first.Runs[1].CreatedAt))

	all, err := svc.List(ctx, auditdomain.ListRunsRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Runs, 4)
}

func TestListRejectsBadToken(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), auditdomain.ListRunsRequest{Pagination: paginationOf("not-a-token", 10)})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

func paginationOf(token string, size int) pagination.Pagination {
	return pagination.Pagination{PageToken: token, PageSize: size}
}
