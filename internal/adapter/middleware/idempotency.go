package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRequestAt      = "X-Request-At"

	// How long we hold the "in-progress" lock before it must be refreshed by finishing the handler.
	provisionalLockTTL = 60 * time.Second
	// Allowed client/server clock skew for X-Request-At (in UTC).
	maxClockSkew = 10 * time.Minute
)

// callerHeaders are the identity headers a mutating request must carry one of.
var callerHeaders = []string{"X-Applicant-Id", "X-Admin-Id"}

// ---- Data types ----
type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

// requestMeta is what the headers of a mutating request resolve to.
type requestMeta struct {
	idemKey string
	caller  string
	at      time.Time
}

// readHeaders validates the idempotency headers; the error text is client-facing.
func readHeaders(h http.Header, now time.Time) (requestMeta, error) {
	var m requestMeta
	m.idemKey = strings.TrimSpace(h.Get(HeaderIdempotencyKey))
	if m.idemKey == "" {
		return m, errors.New("missing " + HeaderIdempotencyKey)
	}
	if !validIdemKey(m.idemKey) {
		return m, errors.New("invalid " + HeaderIdempotencyKey + " format")
	}

	at, err := parseRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return m, err
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return m, errors.New(HeaderRequestAt + " too skewed")
	}
	m.at = at

	name, caller := callerID(h)
	if caller == "" {
		return m, errors.New("missing " + strings.Join(callerHeaders, " or "))
	}
	if !reHex32.MatchString(caller) {
		return m, errors.New("invalid " + name)
	}
	m.caller = caller
	return m, nil
}

// existing answers a request whose key is already taken: replay the stored
// response, or 409 when the body differs or the first request still runs.
func existing(c echo.Context, cur idempEntry, bhash string) error {
	if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
		return c.JSON(http.StatusConflict, map[string]string{"error": HeaderIdempotencyKey + " reused with different body"})
	}
	if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
		return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
	}
	return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
}

// IdempotencyMiddleware: key = method + route + caller id + Idempotency-Key.
// A replay with the same body returns the stored response; 5xx responses are
// not stored so the client may retry with the same key.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			meta, err := readHeaders(req.Header, nowUTC())
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(body))
			bhash := bodyHash(body)

			key := buildKey(req.Method, c.Path(), meta.caller, meta.idemKey)
			logger := log.WithField("key", key)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			entry := idempEntry{
				InProgress:  true,
				BodySHA256:  bhash,
				RequestID:   meta.idemKey,
				RequestAtMS: meta.at.UnixMilli(),
				CreatedAt:   nowUTC(),
			}
			ok, err := provisionalSet(ctx, rdb, key, entry)
			if err != nil {
				logger.WithError(err).Warn("idempotency: store unavailable")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !ok {
				cur, err := loadEntry(ctx, rdb, key)
				if err != nil {
					logger.WithError(err).Warn("idempotency: load entry failed")
				}
				return existing(c, cur, bhash)
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			if rec.code >= http.StatusInternalServerError {
				if err := release(context.Background(), rdb, key); err != nil {
					logger.WithError(err).Warn("idempotency: release failed")
				}
				return nil
			}
			entry.InProgress = false
			entry.Code = rec.code
			entry.Body = rec.buf.Bytes()
			entry.CreatedAt = nowUTC()
			if err := saveFinal(context.Background(), rdb, key, entry, ttl); err != nil {
				logger.WithError(err).Warn("idempotency: save failed")
			}
			return nil
		}
	}
}
