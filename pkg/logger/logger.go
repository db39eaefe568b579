// Package logger is the service-wide slog wrapper. Request, pipeline and
// security events each get a helper so their attribute names stay stable
// for log queries.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type Logger struct {
	*slog.Logger
}

// New reads LOG_LEVEL and picks text output in gin debug mode, JSON
// everywhere else.
func New() *Logger {
	return NewWithWriter(os.Stdout, getLogLevel(os.Getenv("LOG_LEVEL")), gin.Mode() != gin.DebugMode)
}

func NewWithWriter(w io.Writer, level slog.Level, asJSON bool) *Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if asJSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("user_id", userID))}
}

// HTTP

func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Pipeline

// LogParseFailure records which field of a confirmation email was unusable.
func (l *Logger) LogParseFailure(ctx context.Context, code, field, userID string) {
	l.Logger.WarnContext(ctx,
		"Booking Parse Failed",
		slog.String("code", code),
		slog.String("field", field),
		slog.String("user_id", userID),
	)
}

func (l *Logger) LogBookingCreated(ctx context.Context, bookingID, pnr, userID string) {
	l.Logger.InfoContext(ctx,
		"Booking Created",
		slog.String("booking_id", bookingID),
		slog.String("pnr", pnr),
		slog.String("user_id", userID),
	)
}

func (l *Logger) LogTrainLinked(ctx context.Context, bookingID, tripID string) {
	l.Logger.InfoContext(ctx,
		"Booking Linked To Train",
		slog.String("booking_id", bookingID),
		slog.String("trip_id", tripID),
	)
}

func (l *Logger) LogClaimCreated(ctx context.Context, claimID, bookingID, status string) {
	l.Logger.InfoContext(ctx,
		"Claim Created",
		slog.String("claim_id", claimID),
		slog.String("booking_id", bookingID),
		slog.String("status", status),
	)
}

func (l *Logger) LogClaimTransition(ctx context.Context, claimID, from, to string) {
	l.Logger.InfoContext(ctx,
		"Claim Status Changed",
		slog.String("claim_id", claimID),
		slog.String("from", from),
		slog.String("to", to),
	)
}

func (l *Logger) LogSweepCompleted(ctx context.Context, evaluated, created, promoted, expired, failed int, duration time.Duration) {
	l.Logger.InfoContext(ctx,
		"Sweep Completed",
		slog.Int("evaluated", evaluated),
		slog.Int("claims_created", created),
		slog.Int("claims_promoted", promoted),
		slog.Int("claims_expired", expired),
		slog.Int("failed", failed),
		slog.Duration("duration", duration),
	)
}

func (l *Logger) LogFeedRefreshed(ctx context.Context, records int, duration time.Duration) {
	l.Logger.InfoContext(ctx,
		"Train Feed Refreshed",
		slog.Int("records", records),
		slog.Duration("duration", duration),
	)
}

// Security

func (l *Logger) LogAuthSuccess(ctx context.Context, userID, method string) {
	l.Logger.InfoContext(ctx,
		"Authentication Success",
		slog.String("user_id", userID),
		slog.String("method", method),
	)
}

// LogAuthFailure never takes the token or password, only why it failed.
func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Authentication Failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Free-form events carry their attributes as a map.

func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Logger.InfoContext(ctx, msg, fieldArgs(nil, fields)...)
}

func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	var errAttr []interface{}
	if err != nil {
		errAttr = []interface{}{slog.String("error", err.Error())}
	}
	l.Logger.ErrorContext(ctx, msg, fieldArgs(errAttr, fields)...)
}

func (l *Logger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Logger.DebugContext(ctx, msg, fieldArgs(nil, fields)...)
}

func fieldArgs(args []interface{}, fields map[string]interface{}) []interface{} {
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return args
}

var defaultLogger = New()

// GetDefault is used by components built without an explicit logger.
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault is called once from main after the gin mode is set.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
