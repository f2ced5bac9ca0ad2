package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "kanban-api/api"

// eventRequestMetrics collects timings and outcome for one mutation
// request and emits them as a structured log entry plus an otel span.
type eventRequestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	start          time.Time
	decodeDuration time.Duration
	applyDuration  time.Duration
	event          string
	clientID       string
	errorStage     string
}

func newEventRequestMetrics(ctx context.Context, logger *log.Logger) (*eventRequestMetrics, context.Context) {
	m := &eventRequestMetrics{logger: logger, start: time.Now()}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "events.apply")
	m.span = span
	return m, spanCtx
}

func (m *eventRequestMetrics) ObserveDecode(d time.Duration) {
	if d > 0 {
		m.decodeDuration = d
	}
}

func (m *eventRequestMetrics) ObserveApply(d time.Duration) {
	if d > 0 {
		m.applyDuration = d
	}
}

func (m *eventRequestMetrics) SetEvent(event string) {
	m.event = event
}

func (m *eventRequestMetrics) SetClientID(id string) {
	m.clientID = id
}

func (m *eventRequestMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

func (m *eventRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	if m.span != nil {
		m.span.SetAttributes(
			attribute.String("event", m.event),
			attribute.String("client_id", m.clientID),
			attribute.Int("http.status_code", status),
		)
		if m.errorStage != "" {
			m.span.SetAttributes(attribute.String("error_stage", m.errorStage))
		}
		if err != nil {
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		} else if status >= 500 {
			m.span.SetStatus(codes.Error, "server error")
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":    "/api/events",
		"event":    m.event,
		"client":   m.clientID,
		"status":   status,
		"total_ms": durationToMillis(time.Since(m.start)),
	}
	if m.decodeDuration > 0 {
		fields["decode_ms"] = durationToMillis(m.decodeDuration)
	}
	if m.applyDuration > 0 {
		fields["apply_ms"] = durationToMillis(m.applyDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	entry := m.logger.WithFields(fields)
	severity, _ := severityForStatus(status, err)
	switch severity {
	case "error":
		entry.Error("events.request.metrics")
	case "warn":
		entry.Warn("events.request.metrics")
	default:
		entry.Info("events.request.metrics")
	}
}

// severityForStatus maps a response status to a log severity: client
// faults warn, server faults error, everything else info.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case status >= 500 || (err != nil && status == 0):
		return "error", 3
	case status >= 400:
		return "warn", 2
	default:
		return "info", 1
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
