package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxAttempts      = 5
	DefaultBaseDelay        = 2 * time.Second
	DefaultRateLimitDefault = 30 * time.Second

	maxBodyBytes       = 4 << 20
	genericJitterMax   = time.Second
	rateLimitJitterMax = 5 * time.Second
	alreadyConnected   = "already connected"
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL          string
	MaxAttempts      int
	BaseDelay        time.Duration
	RateLimitDefault time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.RateLimitDefault <= 0 {
		c.RateLimitDefault = DefaultRateLimitDefault
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// Call is one logical request. A nil Body sends no body and no content type.
// Attempts <= 0 means a single attempt that does not inform proxy health.
// Budgets above Config.MaxAttempts are capped.
type Call struct {
	Method                 string
	Path                   string
	Body                   any
	Attempts               int
	AcceptAlreadyConnected bool
}

func (c Call) tracked() bool {
	return c.Attempts > 0
}

// Engine executes calls through one transport bound to the pool's current
// endpoint. Build a new Engine after the pool rotates.
type Engine struct {
	cfg     Config
	doer    Doer
	pool    *domain.ProxyPool
	sleeper ports.Sleeper
	random  ports.Random
	log     logrus.FieldLogger
}

func New(cfg Config, doer Doer, pool *domain.ProxyPool, sleeper ports.Sleeper, random ports.Random, log logrus.FieldLogger) *Engine {
	cfg.applyDefaults()
	if sleeper == nil {
		sleeper = ports.SystemClock{}
	}
	if random == nil {
		random = ports.SystemRandom{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Engine{cfg: cfg, doer: doer, pool: pool, sleeper: sleeper, random: random, log: log}
}

func (e *Engine) Do(ctx context.Context, call Call) Result {
	attempts := min(call.Attempts, e.cfg.MaxAttempts)
	if attempts <= 0 {
		attempts = 1
	}

	var last Result
	for attempt := 1; attempt <= attempts; attempt++ {
		res := e.attempt(ctx, call, attempt)
		res.Attempts = attempt

		if res.Outcome != OutcomeRetry {
			return res
		}

		last = res
		if attempt == attempts {
			break
		}

		e.log.WithFields(logrus.Fields{
			"path":    call.Path,
			"kind":    res.Kind,
			"status":  res.Status,
			"attempt": attempt,
			"wait":    res.wait.Round(100 * time.Millisecond).String(),
		}).Warnf("request failed: %s, retrying", res.Message)

		if err := e.sleeper.Sleep(ctx, res.wait); err != nil {
			return Result{Outcome: OutcomeExhausted, Attempts: attempt, Cause: err}
		}
	}

	last.Outcome = OutcomeExhausted
	if call.tracked() {
		e.log.WithFields(logrus.Fields{
			"path":   call.Path,
			"kind":   last.Kind,
			"status": last.Status,
		}).Errorf("request failed after %d attempts: %s", last.Attempts, last.Message)
	}

	return last
}

func (e *Engine) attempt(ctx context.Context, call Call, attempt int) Result {
	req, err := e.newRequest(ctx, call)
	if err != nil {
		return Result{Outcome: OutcomeExhausted, Kind: domain.FailureGeneric, Cause: err, Message: err.Error()}
	}

	resp, err := e.doer.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Outcome: OutcomeExhausted, Cause: ctxErr, Message: ctxErr.Error()}
		}
		return e.failure(call, attempt, 0, nil, nil, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Outcome: OutcomeExhausted, Cause: ctxErr, Message: ctxErr.Error()}
		}
		return e.failure(call, attempt, 0, nil, nil, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if call.tracked() && e.pool != nil {
			e.pool.RecordSuccess()
		}
		return Result{Outcome: OutcomeSuccess, Status: resp.StatusCode, Body: body}
	}

	return e.failure(call, attempt, resp.StatusCode, resp.Header, body, nil)
}

func (e *Engine) failure(call Call, attempt, status int, header http.Header, body []byte, transportErr error) Result {
	message := failureMessage(status, body, transportErr)
	kind := Classify(status, message, call.AcceptAlreadyConnected)
	cause := transportErr
	if cause == nil {
		cause = &StatusError{Status: status, Message: message}
	}

	res := Result{Status: status, Body: body, Kind: kind, Message: message, Cause: cause}

	switch kind {
	case domain.FailureNetwork:
		if call.tracked() && e.pool != nil && e.pool.RecordFailure(message) {
			e.log.WithFields(logrus.Fields{
				"path":   call.Path,
				"reason": "consecutive_failures",
				"proxy":  e.pool.Masked(),
			}).Warn("proxy rotated")
			res.Outcome = OutcomeProxyChanged
			return res
		}
		res.Outcome = OutcomeRetry
		res.wait = e.GenericDelay(attempt)
	case domain.FailureAuthExpired:
		e.log.WithFields(logrus.Fields{"path": call.Path, "status": status}).Errorf("auth error: %s", message)
		res.Outcome = OutcomeAuthExpired
	case domain.FailureRateLimited:
		res.Outcome = OutcomeRetry
		res.wait = e.RateLimitDelay(attempt, retryAfter(header, e.cfg.RateLimitDefault))
	case domain.FailureConflictAsDone:
		if call.tracked() && e.pool != nil {
			e.pool.RecordSuccess()
		}
		res.Outcome = OutcomeSuccess
		res.AlreadyConnected = true
		res.Cause = nil
	default:
		res.Outcome = OutcomeRetry
		res.wait = e.GenericDelay(attempt)
	}

	return res
}

// Classify maps one failed attempt to its failure kind. Status 0 stands for a
// transport-level error.
func Classify(status int, message string, acceptAlreadyConnected bool) domain.FailureKind {
	switch {
	case status == 0 || status >= http.StatusInternalServerError:
		return domain.FailureNetwork
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.FailureAuthExpired
	case status == http.StatusTooManyRequests:
		return domain.FailureRateLimited
	case status == http.StatusBadRequest && acceptAlreadyConnected &&
		strings.Contains(strings.ToLower(message), alreadyConnected):
		return domain.FailureConflictAsDone
	default:
		return domain.FailureGeneric
	}
}

// GenericDelay is baseDelay*2^(attempt-1) plus jitter below min(1s,
// baseDelay/2). It never decreases as attempt grows.
func (e *Engine) GenericDelay(attempt int) time.Duration {
	return exponential(e.cfg.BaseDelay, attempt-1) + jitter(e.random, min(genericJitterMax, e.cfg.BaseDelay/2))
}

// RateLimitDelay is max(retryAfter, baseDelay*2^attempt) plus up to five
// seconds of jitter.
func (e *Engine) RateLimitDelay(attempt int, retryAfter time.Duration) time.Duration {
	wait := exponential(e.cfg.BaseDelay, attempt)
	if retryAfter > wait {
		wait = retryAfter
	}
	return wait + jitter(e.random, rateLimitJitterMax)
}

func (e *Engine) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	method := call.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader = http.NoBody
	if call.Body != nil {
		encoded, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", call.Path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.cfg.BaseURL+call.Path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", call.Path, err)
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func exponential(base time.Duration, exp int) time.Duration {
	if exp < 0 {
		exp = 0
	}
	return time.Duration(float64(base) * math.Pow(2, float64(exp)))
}

func jitter(random ports.Random, max time.Duration) time.Duration {
	return time.Duration(random.Float64() * float64(max))
}

func retryAfter(header http.Header, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(header.Get("Retry-After"))
	if raw == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
		return 0
	}
	return fallback
}

func failureMessage(status int, body []byte, transportErr error) string {
	if transportErr != nil {
		return transportErr.Error()
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		if len(trimmed) > 200 {
			trimmed = trimmed[:200]
		}
		return trimmed
	}

	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}
