package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	cuadraturadomain "github.com/smallbiznis/cuadra/internal/cuadratura/domain"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/export"
	"github.com/smallbiznis/cuadra/internal/session"
	"go.uber.org/zap"
)

const tableSummary = "summary"

// stateEmpty reports a computed selection that matched nothing.
const stateEmpty session.State = "empty"

type cuadraturaResponse struct {
	State     session.State            `json:"state"`
	Signature string                   `json:"signature"`
	Report    *cuadraturadomain.Report `json:"report,omitempty"`
}

// SearchCuadratura runs the reconciliation for the posted filter and caches
// the result in the session. A failed run leaves the previous result cached.
func (s *Server) SearchCuadratura(c *gin.Context) {
	var filter catalogdomain.Filter
	if err := c.ShouldBindJSON(&filter); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	filter = filter.Normalize()
	if err := filter.Validate(); err != nil {
		AbortWithError(c, err)
		return
	}

	sess, ok := currentSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.Set("report_page", cuadraturadomain.Page)

	release, err := s.runLocker.Acquire(c.Request.Context(), sess.ID, cuadraturadomain.Page, filter.Signature())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer release()

	ctx, err := s.withCapabilities(c, sess)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.cuadraturaSvc.Run(ctx, filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.sessions.Store(ctx, sess.ID, cuadraturadomain.Page, report.Signature, report); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, cuadraturaResponse{
		State:     reportState(session.StateReady, report),
		Signature: report.Signature,
		Report:    &report,
	})
}

// GetCuadratura compares the filter in the query with the cached result.
// Only a ready lookup carries the report; nothing is recomputed.
func (s *Server) GetCuadratura(c *gin.Context) {
	var filter catalogdomain.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	filter = filter.Normalize()
	if err := filter.Validate(); err != nil {
		AbortWithError(c, err)
		return
	}

	sess, ok := currentSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.Set("report_page", cuadraturadomain.Page)

	signature := filter.Signature()
	lookup, err := s.sessions.Lookup(c.Request.Context(), sess.ID, cuadraturadomain.Page, signature)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("report_cache", string(lookup.State))

	resp := cuadraturaResponse{State: lookup.State, Signature: signature}
	if lookup.State == session.StateReady {
		var report cuadraturadomain.Report
		if err := lookup.Entry.Decode(&report); err != nil {
			AbortWithError(c, err)
			return
		}
		resp.State = reportState(lookup.State, report)
		resp.Report = &report
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ClearCuadratura(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	if err := s.sessions.Clear(c.Request.Context(), sess.ID, cuadraturadomain.Page); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportCuadratura downloads one table of the cached report as CSV, or the
// summary as PDF. Exports never trigger a computation.
func (s *Server) ExportCuadratura(c *gin.Context) {
	table := strings.ToLower(strings.TrimSpace(c.Param("table")))

	sess, ok := currentSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	lookup, err := s.sessions.Lookup(c.Request.Context(), sess.ID, cuadraturadomain.Page, "")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if lookup.State == session.StateIdle {
		AbortWithError(c, ErrReportNotCached)
		return
	}
	var report cuadraturadomain.Report
	if err := lookup.Entry.Decode(&report); err != nil {
		AbortWithError(c, err)
		return
	}
	label := filterLabel(report.Filter.Destinations)

	if table == tableSummary {
		body, err := export.SummaryPDF(report)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		name := export.FileName(cuadraturadomain.Page, tableSummary, label, "pdf", s.clock.Now())
		s.writeAttachment(c, name, contentTypePDF, body)
		return
	}

	t, err := export.CuadraturaTable(report, table)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.writeTable(c, cuadraturadomain.Page, t, label)
}

// withCapabilities negotiates capabilities for sessions that have none
// cached yet and stores them for later requests.
func (s *Server) withCapabilities(c *gin.Context, sess session.Session) (context.Context, error) {
	ctx := c.Request.Context()
	if _, ok := erp.CapabilitiesFromContext(ctx); ok {
		return ctx, nil
	}
	caps, err := erp.Negotiate(ctx, s.reader, s.log)
	if err != nil {
		return ctx, err
	}
	if err := s.sessions.SetCapabilities(ctx, sess.ID, caps); err != nil {
		s.log.Warn("cache capabilities failed", zap.Error(err))
	}
	return erp.ContextWithCapabilities(ctx, caps), nil
}

func reportState(state session.State, report cuadraturadomain.Report) session.State {
	if state == session.StateReady && report.Empty {
		return stateEmpty
	}
	return state
}
