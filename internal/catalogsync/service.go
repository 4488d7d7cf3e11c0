// Package catalogsync talks to the catalog backend: it loads the whole catalog into the
// operation queue and drains the queue as one batch on save.
package catalogsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"catalog-editor/internal/model"
)

const endpointPath = "api/cat/crudLabelsValues"

const (
	processGetAll = "GetAll"
	processCRUD   = "CRUD"
)

const (
	msgNoChanges = "no changes to save"
	msgSaved     = "changes saved"
)

// ErrNoBaseURL is returned when the service has no backend configured.
var ErrNoBaseURL = errors.New("catalog api url is not configured")

type Config struct {
	BaseURL    string
	LoggedUser string
	DBServer   string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// Queue is the part of the operation store the service drives. *opqueue.Store
// satisfies it.
type Queue interface {
	Operations() []model.Operation
	SetLabels(labels []model.Label)
	ClearOperations()
	ClearStatuses()
}

// Result is the outcome of a batch submit. On failure the queue is left untouched.
type Result struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Errors  []OperationError `json:"errors,omitempty"`
}

// Err returns nil on success and a *SyncError otherwise.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &SyncError{Errors: r.Errors}
}

// Batch is a snapshot of the queue taken for one submit.
type Batch struct {
	Operations []model.Operation
}

func (b Batch) Empty() bool { return len(b.Operations) == 0 }

type Service struct {
	cfg   Config
	queue Queue
	http  *http.Client
	log   zerolog.Logger
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func New(cfg Config, queue Queue, opts ...Option) *Service {
	s := &Service{cfg: cfg, queue: queue, log: zerolog.Nop()}
	s.http = cfg.HTTPClient
	if s.http == nil {
		s.http = &http.Client{Timeout: 30 * time.Second}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) endpoint(process string) (string, error) {
	if strings.TrimSpace(s.cfg.BaseURL) == "" {
		return "", ErrNoBaseURL
	}
	u, err := url.Parse(strings.TrimSpace(s.cfg.BaseURL))
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	u = u.JoinPath(endpointPath)
	q := u.Query()
	q.Set("ProcessType", process)
	if s.cfg.LoggedUser != "" {
		q.Set("LoggedUser", s.cfg.LoggedUser)
	}
	if s.cfg.DBServer != "" {
		q.Set("DBServer", s.cfg.DBServer)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Load fetches the catalog without touching the queue.
func (s *Service) Load(ctx context.Context) ([]model.Label, error) {
	endpoint, err := s.endpoint(processGetAll)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch catalog: http status %d", resp.StatusCode)
	}

	var env fetchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("decode catalog: response has no data")
	}
	labels := make([]model.Label, 0, len(env.Data[0].DataRes))
	for _, a := range env.Data[0].DataRes {
		labels = append(labels, a.toModel())
	}
	return labels, nil
}

// FetchAll loads the catalog and replaces the queue's model with it. Failures are
// logged and yield an empty result; the model is left as it was.
func (s *Service) FetchAll(ctx context.Context) []model.Label {
	labels, err := s.Load(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("fetch catalog failed")
		return []model.Label{}
	}
	s.queue.SetLabels(labels)
	s.log.Debug().Int("labels", len(labels)).Msg("catalog loaded")
	return labels
}

// SubmitBatch sends every queued operation and, on success, clears the queue and all
// row statuses.
func (s *Service) SubmitBatch(ctx context.Context) Result {
	b := s.PrepareBatch()
	res := s.Send(ctx, b)
	s.Complete(b, res)
	return res
}

// PrepareBatch snapshots the queue. Call it on the goroutine that owns the queue.
func (s *Service) PrepareBatch() Batch {
	return Batch{Operations: s.queue.Operations()}
}

// Send posts b and classifies the response. It does not touch the queue and is safe
// to run off the owning goroutine.
func (s *Service) Send(ctx context.Context, b Batch) Result {
	if b.Empty() {
		return Result{Success: true, Message: msgNoChanges}
	}
	endpoint, err := s.endpoint(processCRUD)
	if err != nil {
		return Result{Errors: []OperationError{batchError(CodeNetworkError, err.Error())}}
	}
	body, err := json.Marshal(newSubmitBody(b.Operations))
	if err != nil {
		return Result{Errors: []OperationError{batchError(CodeOperationFailed, err.Error())}}
	}
	s.log.Debug().Int("operations", len(b.Operations)).Str("url", endpoint).Msg("submitting batch")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Errors: []OperationError{batchError(CodeNetworkError, err.Error())}}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Error().Err(err).Msg("submit batch failed")
		return Result{Errors: []OperationError{batchError(CodeNetworkError, err.Error())}}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Errors: []OperationError{batchError(CodeNetworkError, err.Error())}}
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		s.log.Error().Int("status", resp.StatusCode).Msg("submit batch: non-json response")
		return Result{Errors: []OperationError{batchError(CodeInvalidResponse, "server returned: "+truncate(string(raw), 100))}}
	}
	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{Errors: []OperationError{batchError(CodeInvalidResponse, "decode response: "+err.Error())}}
	}

	res := classify(decoded)
	if res.Success {
		res.Message = msgSaved
	} else {
		s.log.Warn().Int("errors", len(res.Errors)).Msg("batch rejected")
	}
	return res
}

// Complete applies a Send result to the queue. Call it on the goroutine that owns the
// queue, after Send returns.
func (s *Service) Complete(b Batch, res Result) {
	if !res.Success || b.Empty() {
		return
	}
	s.queue.ClearOperations()
	s.queue.ClearStatuses()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
