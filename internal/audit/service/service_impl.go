package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/cuadra/internal/audit/domain"
	"github.com/smallbiznis/cuadra/internal/audit/masking"
	"github.com/smallbiznis/cuadra/pkg/db"
	"github.com/smallbiznis/cuadra/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxErrorMessage = 2000

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
	now   func() time.Time
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Record(ctx context.Context, req auditdomain.RecordRequest) (auditdomain.Run, error) {
	page := strings.TrimSpace(req.Page)
	if page == "" {
		return auditdomain.Run{}, auditdomain.ErrInvalidPage
	}
	switch req.Outcome {
	case auditdomain.OutcomeOK, auditdomain.OutcomeEmpty, auditdomain.OutcomeError:
	default:
		return auditdomain.Run{}, auditdomain.ErrInvalidOutcome
	}

	run := auditdomain.Run{
		ID:         s.genID.Generate(),
		Page:       page,
		Session:    masking.MaskSecret(req.Session),
		Signature:  req.Signature,
		Filter:     toJSONMap(req.Filter),
		Outcome:    req.Outcome,
		ErrorKind:  strings.TrimSpace(req.ErrorKind),
		Source:     strings.TrimSpace(req.Source),
		Totals:     toJSONMap(req.Totals),
		DurationMS: req.Duration.Milliseconds(),
		CreatedAt:  s.now(),
	}
	if req.Err != nil {
		msg := masking.MaskText(req.Err.Error(), req.Session)
		if len(msg) > maxErrorMessage {
			msg = msg[:maxErrorMessage]
		}
		run.ErrorMessage = msg
	}

	err := s.repo.Insert(ctx, s.db, &run)
	if err != nil && db.IsDuplicateKeyErr(err) {
		// node clock moved backwards; one fresh id is enough
		run.ID = s.genID.Generate()
		err = s.repo.Insert(ctx, s.db, &run)
	}
	if err != nil {
		s.log.Warn("failed to record report run", zap.String("page", page), zap.Error(err))
		return auditdomain.Run{}, err
	}
	return run, nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRunsRequest) (auditdomain.ListRunsResponse, error) {
	var cursor *auditdomain.RunCursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		decoded, err := pagination.DecodeCursor(token)
		if err != nil {
			return auditdomain.ListRunsResponse{}, auditdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListRunsResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return auditdomain.ListRunsResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.RunCursor{ID: id, CreatedAt: createdAt}
	}

	limit := req.Limit()
	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		Page:   req.Page,
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		return auditdomain.ListRunsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, limit, func(item *auditdomain.Run) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > limit {
		items = items[:limit]
	}

	runs := make([]auditdomain.Run, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		runs = append(runs, *item)
	}
	return auditdomain.ListRunsResponse{PageInfo: pageInfo, Runs: runs}, nil
}

// toJSONMap stores any JSON object value; other shapes are wrapped.
func toJSONMap(v any) datatypes.JSONMap {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return datatypes.JSONMap(m)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return datatypes.JSONMap{"value": json.RawMessage(raw)}
	}
	return datatypes.JSONMap(out)
}
