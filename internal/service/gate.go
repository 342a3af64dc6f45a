// Package service implements the Gate: it decides every request against the
// current case and applies accepted mutations atomically.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jurisgate/internal/casestore"
	"jurisgate/internal/logging"
	"jurisgate/internal/model"
	"jurisgate/internal/storage"
	"jurisgate/internal/validator"
)

// ErrNoOperations is returned for an empty batch.
var ErrNoOperations = errors.New("batch has no operations")

// DefaultActor is recorded when a request carries no caller identity.
const DefaultActor = "anonymous"

// SubmitResult is the decision on one request. Raw is the exact encoding of
// Response; replays return the recorded bytes unchanged.
type SubmitResult struct {
	Response model.Response
	Raw      []byte
	Replayed bool
}

// BatchOperation is one entry of a batch. Every entry addresses the batch's case.
type BatchOperation struct {
	ToolName model.ToolName  `json:"toolName"`
	Payload  json.RawMessage `json:"payload"`
}

// BatchResult holds one result per processed operation. HaltedAt is the index
// of the first rejected operation; later operations were not submitted.
type BatchResult struct {
	Results  []SubmitResult `json:"results"`
	HaltedAt *int           `json:"halted_at,omitempty"`
}

// GateService is the single entry point for reading and changing cases.
type GateService interface {
	// Submit decides req. Rejections are ordinary results; an error means
	// the decision could not be made or persisted and nothing changed.
	Submit(ctx context.Context, req model.Request) (*SubmitResult, error)
	// SubmitBatch submits ops in order and stops at the first rejection.
	SubmitBatch(ctx context.Context, caseID model.ID, actor string, ops []BatchOperation) (*BatchResult, error)
}

// ReplayCache is a shared cache of recorded responses. It is advisory: the
// Case Store's outcome table stays authoritative.
type ReplayCache interface {
	Get(ctx context.Context, scope model.ID, rid string) ([]byte, bool, error)
	Put(ctx context.Context, scope model.ID, rid string, response []byte) error
}

// Options configures a GateService. Store is required; everything else has
// a usable zero value.
type Options struct {
	Store         *casestore.Store
	Policy        *validator.Policy
	Storage       storage.Storage
	Replay        ReplayCache
	Metrics       *Metrics
	Logger        *logging.Logger
	PresignExpiry time.Duration
	Clock         func() time.Time
	NewID         func() string
}

type gateService struct {
	store         *casestore.Store
	policy        *validator.Policy
	storage       storage.Storage
	replay        ReplayCache
	metrics       *Metrics
	logger        *logging.Logger
	presignExpiry time.Duration
	clock         func() time.Time
	newID         func() string
	tracer        trace.Tracer
}

func NewGateService(opts Options) GateService {
	s := &gateService{
		store:         opts.Store,
		policy:        opts.Policy,
		storage:       opts.Storage,
		replay:        opts.Replay,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
		presignExpiry: opts.PresignExpiry,
		clock:         opts.Clock,
		newID:         opts.NewID,
		tracer:        otel.Tracer("jurisgate/service"),
	}
	if s.policy == nil {
		s.policy = validator.DefaultPolicy()
	}
	if s.logger == nil {
		s.logger = logging.New(io.Discard, nil)
	}
	if s.presignExpiry <= 0 {
		s.presignExpiry = 15 * time.Minute
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

func (s *gateService) now() time.Time { return s.clock().UTC() }

func (s *gateService) Submit(ctx context.Context, req model.Request) (*SubmitResult, error) {
	// A decision that has started is finished even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "gate.Submit", trace.WithAttributes(
		attribute.String("gate.tool", string(req.ToolName)),
		attribute.String("gate.case_id", req.CaseID),
	))
	defer span.End()

	if req.Actor == "" {
		req.Actor = DefaultActor
	}

	res, rid, err := s.submit(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("gate_failed", map[string]any{
			"tool":        req.ToolName,
			"case_id":     req.CaseID,
			"request_id":  rid,
			"error":       err.Error(),
			"duration_ms": elapsed.Milliseconds(),
		})
		return nil, err
	}

	code := ""
	if res.Response.Error != nil {
		code = string(res.Response.Error.Code)
	}
	span.SetAttributes(
		attribute.Bool("gate.ok", res.Response.OK),
		attribute.String("gate.error_code", code),
		attribute.Bool("gate.replayed", res.Replayed),
	)
	s.metrics.observe(metricTool(req.ToolName), res.Response.OK, res.Replayed, code, elapsed.Seconds())
	s.logger.Info("gate_decision", map[string]any{
		"tool":        req.ToolName,
		"case_id":     req.CaseID,
		"request_id":  rid,
		"actor":       req.Actor,
		"ok":          res.Response.OK,
		"code":        code,
		"replayed":    res.Replayed,
		"duration_ms": elapsed.Milliseconds(),
	})
	return res, nil
}

// scopeOf is the outcome scope of a request: the system scope for case
// creation, otherwise the addressed case.
func scopeOf(req model.Request, meta validator.Meta) model.ID {
	switch {
	case req.ToolName == model.ToolCaseCreate:
		return model.SystemScope
	case meta.CaseID != "":
		return meta.CaseID
	case req.CaseID != "":
		return req.CaseID
	}
	return model.SystemScope
}

func (s *gateService) submit(ctx context.Context, req model.Request) (*SubmitResult, string, error) {
	meta, d := validator.ReadMeta(req.Payload)
	scope := scopeOf(req, meta)
	if !d.Accepted {
		res, err := s.rejectUnkeyed(ctx, req, meta, scope, d)
		return res, "", err
	}
	rid := meta.RequestID

	if res := s.cached(ctx, scope, rid); res != nil {
		return res, rid, nil
	}
	if rec, ok := s.store.Outcome(scope, rid); ok {
		res, err := replayed(rec.Response)
		return res, rid, err
	}

	op, d := validator.Decode(req.ToolName, req.Payload)
	var facts validator.Facts
	if d.Accepted {
		var err error
		if facts, err = s.inspect(ctx, op); err != nil {
			return nil, rid, err
		}
	}

	tx, err := s.store.Begin(ctx, scope)
	if err != nil {
		return nil, rid, fmt.Errorf("lock %s: %w", scope, err)
	}
	defer tx.Rollback()

	// A concurrent request with the same id may have committed while we waited.
	if rec, ok := tx.Outcome(rid); ok {
		res, err := replayed(rec.Response)
		return res, rid, err
	}

	if d.Accepted {
		d = validator.Check(validator.State{
			Case:           tx.Case(),
			CaseID:         addressed(req, meta),
			EnvelopeCaseID: req.CaseID,
			History:        tx.History(),
			OwnerOf:        s.store.OwnerOf,
			Facts:          facts,
			Policy:         s.policy,
		}, op)
	}

	c := call{tx: tx, actor: req.Actor, meta: meta, tool: req.ToolName, decision: d, facts: facts}
	var res *SubmitResult
	switch {
	case !d.Accepted:
		ev := s.rejection(c, tx.Case(), addressed(req, meta), op)
		tx.Trace(ev)
		res, err = encode(model.Response{OK: false, Error: d.ErrorBody(), TraceEventID: ev.EventID}, nil)

	case req.ToolName.ReadOnly():
		kase := tx.Case()
		tx.Rollback()
		data := s.read(ctx, kase, op, facts)
		res, err := encode(model.Response{OK: true}, data)
		return res, rid, err

	default:
		ch, aerr := s.apply(c, op)
		if aerr != nil {
			return nil, rid, aerr
		}
		tx.Trace(ch.event)
		ch.data.TraceEvent = &ch.event
		res, err = encode(model.Response{OK: true, TraceEventID: ch.event.EventID}, &ch.data)
	}
	if err != nil {
		return nil, rid, err
	}
	tx.RecordOutcome(model.RequestRecord{
		Scope:     scope,
		RequestID: rid,
		ToolName:  req.ToolName,
		Response:  res.Raw,
		CreatedAt: s.now(),
	})
	if err := tx.Commit(ctx); err != nil {
		return nil, rid, fmt.Errorf("commit %s: %w", rid, err)
	}

	if s.replay != nil {
		if err := s.replay.Put(ctx, scope, rid, res.Raw); err != nil {
			s.logger.Warn("replay_cache_put_failed", map[string]any{"scope": scope, "request_id": rid, "error": err.Error()})
		}
	}
	return res, rid, nil
}

// addressed is the case a request names: the payload case_id, else the envelope caseId.
func addressed(req model.Request, meta validator.Meta) model.ID {
	if meta.CaseID != "" {
		return meta.CaseID
	}
	return req.CaseID
}

// rejectUnkeyed traces a request that has no usable request id. There is
// nothing to record its outcome under, so a retry is decided again.
func (s *gateService) rejectUnkeyed(ctx context.Context, req model.Request, meta validator.Meta, scope model.ID, d validator.Decision) (*SubmitResult, error) {
	tx, err := s.store.Begin(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", scope, err)
	}
	defer tx.Rollback()

	c := call{tx: tx, actor: req.Actor, meta: meta, tool: req.ToolName, decision: d}
	ev := s.rejection(c, tx.Case(), addressed(req, meta), nil)
	tx.Trace(ev)

	res, err := encode(model.Response{OK: false, Error: d.ErrorBody(), TraceEventID: ev.EventID}, nil)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit rejection: %w", err)
	}
	return res, nil
}

// rejection builds the ERROR_RECORDED event for a refused request. Requests
// that address no existing case are traced under the system scope.
func (s *gateService) rejection(c call, kase *model.Case, caseID model.ID, op validator.Operation) model.TraceEvent {
	traceCase := model.SystemScope
	if kase != nil {
		traceCase = kase.CaseID
	}
	var objects []model.ObjectRef
	if caseID != "" {
		objects = append(objects, model.ObjectRef{ObjectType: model.ObjectCase, ObjectID: caseID})
	}
	objects = append(objects, targets(kase, op)...)
	if len(objects) == 0 {
		objects = append(objects, model.ObjectRef{ObjectType: model.ObjectCase, ObjectID: traceCase})
	}

	d := c.decision
	return s.event(c, traceCase, model.EventErrorRecorded, objects, model.Details{
		Summary: fmt.Sprintf("%s rejected: %s", c.tool, d.Code),
		Change:  model.ErrorRecorded{Code: d.Code, Message: d.Message, Field: d.Field},
	})
}

// targets lists the objects a refused operation named, so that the rejection
// shows up when the trace is queried by object.
func targets(kase *model.Case, op validator.Operation) []model.ObjectRef {
	ref := func(typ model.ObjectType, id model.ID) []model.ObjectRef {
		if id == "" {
			return nil
		}
		r := model.ObjectRef{ObjectType: typ, ObjectID: id}
		if kase != nil {
			_, r.BranchCode, _ = kase.Resolve(id)
		}
		return []model.ObjectRef{r}
	}
	switch o := op.(type) {
	case *validator.DocGet:
		return ref(model.ObjectDocument, o.DocumentID)
	case *validator.DocIngest:
		return ref(model.ObjectDocument, o.DocumentID)
	case *validator.DocClassify:
		return ref(model.ObjectDocument, o.DocumentID)
	case *validator.DocStatusTransition:
		return ref(model.ObjectDocument, o.DocumentID)
	case *validator.DocRename:
		return ref(model.ObjectDocument, o.DocumentID)
	case *validator.OriginalRegister:
		return ref(model.ObjectDocument, o.DocumentID)
	case *validator.OriginalCustodyAppend:
		return ref(model.ObjectPhysicalOriginal, o.PhysicalOriginalID)
	case *validator.ArtifactCreate:
		return ref(model.ObjectDocument, o.DocumentID)
	case *validator.DocLinkCreate:
		return append(ref(o.FromObject.ObjectType, o.FromObject.ObjectID), ref(o.ToObject.ObjectType, o.ToObject.ObjectID)...)
	}
	return nil
}

// encode fills resp.Data from data when given and renders the envelope.
func encode(resp model.Response, data any) (*SubmitResult, error) {
	if data != nil {
		body, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		resp.Data = body
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return &SubmitResult{Response: resp, Raw: raw}, nil
}

func replayed(raw []byte) (*SubmitResult, error) {
	var resp model.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode recorded response: %w", err)
	}
	return &SubmitResult{Response: resp, Raw: raw, Replayed: true}, nil
}

func (s *gateService) cached(ctx context.Context, scope model.ID, rid string) *SubmitResult {
	if s.replay == nil {
		return nil
	}
	raw, ok, err := s.replay.Get(ctx, scope, rid)
	if err != nil {
		s.logger.Warn("replay_cache_get_failed", map[string]any{"scope": scope, "request_id": rid, "error": err.Error()})
		return nil
	}
	if !ok {
		return nil
	}
	res, err := replayed(raw)
	if err != nil {
		return nil
	}
	return res
}

func (s *gateService) SubmitBatch(ctx context.Context, caseID model.ID, actor string, ops []BatchOperation) (*BatchResult, error) {
	if len(ops) == 0 {
		return nil, ErrNoOperations
	}
	out := &BatchResult{Results: make([]SubmitResult, 0, len(ops))}
	for i, op := range ops {
		res, err := s.Submit(ctx, model.Request{ToolName: op.ToolName, Payload: op.Payload, CaseID: caseID, Actor: actor})
		if err != nil {
			return out, fmt.Errorf("operation %d: %w", i, err)
		}
		out.Results = append(out.Results, *res)
		if !res.Response.OK {
			halted := i
			out.HaltedAt = &halted
			break
		}
	}
	return out, nil
}
