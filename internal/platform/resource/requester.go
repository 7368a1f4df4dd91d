package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader is set on every outbound call.
const RequestIDHeader = "X-Request-ID"

// Call describes one outbound request. ID, when set, fills the {id} path
// parameter; Params fill any other placeholder.
type Call struct {
	Op     string
	Method string
	Path   string
	ID     string
	Params map[string]string
	Body   any
}

// Outcomes reported to a Recorder.
const (
	OutcomeRemote   = "remote"
	OutcomeFallback = "fallback"
	OutcomeDropped  = "dropped"
)

// Recorder receives the outcome of every call.
type Recorder interface {
	RecordUpstream(resource, op, outcome string)
}

// Requester issues JSON requests against one upstream deployment.
type Requester struct {
	http     *resty.Client
	resource string
	logger   zerolog.Logger
	recorder Recorder
}

// NewRequester creates a requester bound to baseURL. Retries are left
// disabled; a failed call goes straight to the caller's fallback path.
func NewRequester(resource, baseURL string, timeout time.Duration, logger zerolog.Logger) *Requester {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Requester{
		http:     client,
		resource: resource,
		logger:   logger.With().Str("resource", resource).Logger(),
	}
}

// WithRecorder reports call outcomes to rec.
func (r *Requester) WithRecorder(rec Recorder) *Requester {
	r.recorder = rec
	return r
}

func (r *Requester) record(op, outcome string) {
	if r.recorder != nil {
		r.recorder.RecordUpstream(r.resource, op, outcome)
	}
}

// Do executes call and decodes a successful response body into out, which
// may be nil when the body is irrelevant. The returned request id is the
// value sent in RequestIDHeader.
func (r *Requester) Do(ctx context.Context, call Call, out any) (string, error) {
	requestID := uuid.NewString()

	req := r.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID)
	if len(call.Params) > 0 {
		req.SetPathParams(call.Params)
	}
	if call.ID != "" {
		req.SetPathParam("id", call.ID)
	}
	if call.Body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(call.Body)
	}

	resp, err := req.Execute(call.Method, call.Path)
	if err != nil {
		return requestID, fmt.Errorf("%s %s: %w", call.Method, call.Path, err)
	}
	if !resp.IsSuccess() {
		return requestID, &StatusError{StatusCode: resp.StatusCode(), Method: call.Method, Path: call.Path}
	}

	if out != nil {
		if len(resp.Body()) == 0 {
			return requestID, &DecodeError{Path: call.Path, Err: errors.New("empty body")}
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return requestID, &DecodeError{Path: call.Path, Err: err}
		}
	}
	r.record(call.Op, OutcomeRemote)
	return requestID, nil
}

// Fallback logs a failed call before the caller substitutes fixture data.
func (r *Requester) Fallback(call Call, requestID string, err error) {
	r.record(call.Op, OutcomeFallback)
	r.warn(call, requestID, err, "upstream call failed, serving fixtures")
}

// Failure logs a failed call that has no fallback.
func (r *Requester) Failure(call Call, requestID string, err error) {
	r.record(call.Op, OutcomeDropped)
	r.warn(call, requestID, err, "upstream call failed")
}

func (r *Requester) warn(call Call, requestID string, err error, msg string) {
	status := 0
	if se, ok := AsStatusError(err); ok {
		status = se.StatusCode
	}
	r.logger.Warn().
		Str("op", call.Op).
		Str("failure", string(Classify(err))).
		Int("status", status).
		Str("request_id", requestID).
		Err(err).
		Msg(msg)
}
