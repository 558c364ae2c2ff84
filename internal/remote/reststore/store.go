// Package reststore implements remote.Store against a PostgREST endpoint.
package reststore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/smallbiznis/siino/internal/config"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/remote"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Store struct {
	client *resty.Client
	log    *zap.Logger
	tracer trace.Tracer
}

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func New(cfg config.RestConfig, log *zap.Logger) *Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(retryReads)

	if cfg.APIKey != "" {
		client.SetHeader("apikey", cfg.APIKey).SetAuthToken(cfg.APIKey)
	}

	return &Store{
		client: client,
		log:    log.Named("remote.reststore"),
		tracer: otel.Tracer("github.com/smallbiznis/siino/internal/remote/reststore"),
	}
}

var _ remote.Store = (*Store)(nil)

// retryReads retries only GETs; a write that timed out may have landed.
func retryReads(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || r.StatusCode() >= http.StatusInternalServerError
}

func (s *Store) Select(ctx context.Context, q remote.Query, dest any) error {
	if err := q.Validate(); err != nil {
		return remote.Wrap(remote.OpSelect, q.Collection, err)
	}

	ctx, span := s.start(ctx, remote.OpSelect, q.Collection)
	defer span.End()

	params := map[string]string{"select": selectClause(q.Joins)}
	if q.Collection.TeamScoped() && q.TeamID != "" {
		params["team_id"] = eq(q.TeamID)
	}
	for col, v := range q.Eq {
		params[col] = eq(v)
	}
	if order := orderClause(q.Order); order != "" {
		params["order"] = order
	}
	for _, j := range q.Joins {
		if j.OrderBy != nil {
			params[j.Key+".order"] = orderClause([]remote.Order{*j.OrderBy})
		}
	}
	if q.Limit > 0 {
		params["limit"] = fmt.Sprint(q.Limit)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/" + q.Collection.Table())
	if err := s.check(resp, err); err != nil {
		return s.fail(span, remote.OpSelect, q.Collection, err)
	}

	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return s.fail(span, remote.OpSelect, q.Collection, fmt.Errorf("%w: decode: %w", remote.ErrUnavailable, err))
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, w remote.Write, row any) error {
	if err := w.Validate(); err != nil {
		return remote.Wrap(remote.OpInsert, w.Collection, err)
	}
	rec, ok := row.(entity.Record)
	if !ok || rec.Collection() != w.Collection {
		return remote.Wrap(remote.OpInsert, w.Collection, fmt.Errorf("%w: row does not belong to %s", remote.ErrRejected, w.Collection))
	}
	if w.Collection.TeamScoped() && rec.RecordTeamID() != w.TeamID {
		return remote.Wrap(remote.OpInsert, w.Collection, fmt.Errorf("%w: row belongs to another team", remote.ErrRejected))
	}

	ctx, span := s.start(ctx, remote.OpInsert, w.Collection)
	defer span.End()

	body, err := withoutJoins(row, w.Collection)
	if err != nil {
		return s.fail(span, remote.OpInsert, w.Collection, fmt.Errorf("%w: %w", remote.ErrRejected, err))
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("select", selectClause(remote.JoinsFor(w.Collection))).
		SetBody(body).
		Post("/" + w.Collection.Table())
	if err := s.check(resp, err); err != nil {
		return s.fail(span, remote.OpInsert, w.Collection, err)
	}
	return s.fail(span, remote.OpInsert, w.Collection, decodeFirst(resp.Body(), row))
}

func (s *Store) Update(ctx context.Context, w remote.Write, id string, patch map[string]any, dest any) error {
	if err := w.Validate(); err != nil {
		return remote.Wrap(remote.OpUpdate, w.Collection, err)
	}
	if len(patch) == 0 {
		return remote.Wrap(remote.OpUpdate, w.Collection, remote.ErrRejected)
	}

	ctx, span := s.start(ctx, remote.OpUpdate, w.Collection)
	defer span.End()

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(s.target(w, id)).
		SetQueryParam("select", selectClause(remote.JoinsFor(w.Collection))).
		SetBody(patch).
		Patch("/" + w.Collection.Table())
	if err := s.check(resp, err); err != nil {
		return s.fail(span, remote.OpUpdate, w.Collection, err)
	}
	return s.fail(span, remote.OpUpdate, w.Collection, decodeFirst(resp.Body(), dest))
}

func (s *Store) Delete(ctx context.Context, w remote.Write, id string) error {
	if err := w.Validate(); err != nil {
		return remote.Wrap(remote.OpDelete, w.Collection, err)
	}

	ctx, span := s.start(ctx, remote.OpDelete, w.Collection)
	defer span.End()

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(s.target(w, id)).
		SetQueryParam("select", "id").
		Delete("/" + w.Collection.Table())
	if err := s.check(resp, err); err != nil {
		return s.fail(span, remote.OpDelete, w.Collection, err)
	}

	var deleted []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &deleted); err != nil {
		return s.fail(span, remote.OpDelete, w.Collection, fmt.Errorf("%w: decode: %w", remote.ErrUnavailable, err))
	}
	if len(deleted) == 0 {
		return s.fail(span, remote.OpDelete, w.Collection, remote.ErrNotFound)
	}
	return nil
}

func (s *Store) target(w remote.Write, id string) map[string]string {
	params := map[string]string{"id": eq(id)}
	if w.Collection.TeamScoped() {
		params["team_id"] = eq(w.TeamID)
	}
	return params
}

// check maps transport failures and PostgREST error statuses onto remote sentinels.
func (s *Store) check(resp *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", remote.ErrUnavailable, err)
	}
	if !resp.IsError() {
		return nil
	}

	var body apiError
	_ = json.Unmarshal(resp.Body(), &body)
	detail := fmt.Errorf("status %d: %s %s", resp.StatusCode(), body.Code, strings.TrimSpace(body.Message))

	switch {
	case body.Code == pgUniqueViolation:
		return fmt.Errorf("%w: %w", remote.ErrConflict, detail)
	case body.Code == pgForeignKeyViolation:
		return fmt.Errorf("%w: %w", remote.ErrReferenced, detail)
	case resp.StatusCode() == http.StatusNotFound, resp.StatusCode() == http.StatusNotAcceptable:
		return fmt.Errorf("%w: %w", remote.ErrNotFound, detail)
	case resp.StatusCode() == http.StatusConflict:
		return fmt.Errorf("%w: %w", remote.ErrConflict, detail)
	case resp.StatusCode() >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", remote.ErrUnavailable, detail)
	default:
		return fmt.Errorf("%w: %w", remote.ErrRejected, detail)
	}
}

func (s *Store) start(ctx context.Context, op string, collection entity.Collection) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "reststore."+op, trace.WithAttributes(
		attribute.String("collection", string(collection)),
	))
}

func (s *Store) fail(span trace.Span, op string, collection entity.Collection, err error) error {
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, remote.ErrUnavailable) {
		s.log.Warn("remote call failed",
			zap.String("op", op),
			zap.String("collection", string(collection)),
			zap.Error(err),
		)
	}
	return remote.Wrap(op, collection, err)
}

func decodeFirst(body []byte, dest any) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("%w: decode: %w", remote.ErrUnavailable, err)
	}
	if len(rows) == 0 {
		return remote.ErrNotFound
	}
	target := reflect.ValueOf(dest).Elem()
	target.Set(reflect.Zero(target.Type()))
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return fmt.Errorf("%w: decode: %w", remote.ErrUnavailable, err)
	}
	return nil
}

// withoutJoins encodes row as a column map, dropping embedded related records.
func withoutJoins(row any, collection entity.Collection) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for _, j := range remote.JoinsFor(collection) {
		delete(fields, j.Key)
	}
	return fields, nil
}

// selectClause renders PostgREST resource embedding, e.g.
// *,client:clients(*),line_items:invoice_line_items(*).
func selectClause(joins []remote.Join) string {
	parts := []string{"*"}
	for _, j := range joins {
		parts = append(parts, fmt.Sprintf("%s:%s(*)", j.Key, j.Collection.Table()))
	}
	return strings.Join(parts, ",")
}

func orderClause(orders []remote.Order) string {
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		dir := "asc"
		if o.Desc {
			dir = "desc"
		}
		parts = append(parts, o.Column+"."+dir)
	}
	return strings.Join(parts, ",")
}

func eq(v any) string {
	return "eq." + fmt.Sprint(v)
}
