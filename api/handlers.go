package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-api/domain"
	"kanban-api/relay"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, r *relay.Relay, logger *log.Logger) {
	e.GET("/api/stream", streamEvents(r))
	e.POST("/api/events", postEvent(r, logger))
	e.POST("/api/upload", uploadFiles())
	e.GET("/healthz", healthz(r))
}

func healthz(r *relay.Relay) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse{
			Status:    "healthy",
			Viewers:   r.Hub().Count(),
			Tasks:     r.TaskCount(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// postEvent accepts one intent envelope per request and applies it through
// the relay. A bad envelope rejects that single message only.
func postEvent(r *relay.Relay, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newEventRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		clientID := c.Request().Header.Get(HeaderClientID)
		if clientID == "" {
			clientID = "anonymous"
		}
		metrics.SetClientID(clientID)

		decodeStart := time.Now()
		lr := io.LimitReader(c.Request().Body, postEventMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		var env domain.Envelope
		decodeErr := dec.Decode(&env)
		metrics.ObserveDecode(time.Since(decodeStart))
		if decodeErr != nil {
			metrics.SetErrorStage("decode")
			err = c.JSON(http.StatusBadRequest, postEventResponse{Error: "invalid body"})
			return err
		}
		metrics.SetEvent(env.Event)

		applyStart := time.Now()
		applyErr := r.HandleEvent(clientID, env)
		metrics.ObserveApply(time.Since(applyStart))
		if applyErr != nil {
			var vErr *domain.ValidationError
			switch {
			case errors.As(applyErr, &vErr):
				metrics.SetErrorStage("validation")
				err = c.JSON(http.StatusBadRequest, postEventResponse{Error: vErr.Error()})
			case errors.Is(applyErr, domain.ErrTaskNotFound):
				metrics.SetErrorStage("not_found")
				err = c.JSON(http.StatusNotFound, postEventResponse{Error: applyErr.Error()})
			case errors.Is(applyErr, relay.ErrUnknownEvent):
				metrics.SetErrorStage("unknown_event")
				err = c.JSON(http.StatusBadRequest, postEventResponse{Error: fmt.Sprintf("unknown event %q", env.Event)})
			default:
				metrics.SetErrorStage("apply")
				c.Logger().Error(applyErr)
				err = c.JSON(http.StatusInternalServerError, postEventResponse{Error: "internal error"})
			}
			return err
		}

		err = c.JSON(http.StatusAccepted, postEventResponse{Status: "accepted"})
		return err
	}
}

// streamEvents holds one SSE connection per viewer: initial sync first,
// then broadcast frames until the client goes away.
func streamEvents(r *relay.Relay) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}

		viewerID := uuid.NewString()
		ch := r.Hub().Register(viewerID)
		defer r.Disconnect(viewerID)

		if err := writeFrame(c.Response(), relay.Frame{Event: domain.Connected, Data: []byte(fmt.Sprintf("{%q:%q}", "clientId", viewerID))}); err != nil {
			return nil
		}
		flusher.Flush()

		r.Connect(viewerID)

		ctx := c.Request().Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			case f := <-ch:
				if err := writeFrame(c.Response(), f); err != nil {
					return nil
				}
				flusher.Flush()
			}
		}
	}
}

func writeFrame(w io.Writer, f relay.Frame) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", f.Event); err != nil {
		return err
	}
	data := f.Data
	if len(data) == 0 {
		data = []byte("null")
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n\n"))
	return err
}

// uploadFiles echoes attachment descriptors back with an upload timestamp.
// Actual blob storage lives elsewhere; this endpoint only confirms intake.
func uploadFiles() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req uploadRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, postEventResponse{Error: "invalid body"})
		}
		now := time.Now().UTC().Format(time.RFC3339)
		for i := range req.Files {
			if req.Files[i].UploadedAt == "" {
				req.Files[i].UploadedAt = now
			}
		}
		return c.JSON(http.StatusOK, uploadResponse{Success: true, Files: req.Files})
	}
}
