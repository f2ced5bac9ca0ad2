package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"kanban-api/relay"
)

func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return rc, func() {
		rc.Close()
		m.Close()
	}
}

type frameCollector struct {
	mu     sync.Mutex
	frames []relay.Frame
}

func (c *frameCollector) collect(f relay.Frame) {
	c.mu.Lock()
	c.frames = append(c.frames, f)
	c.mu.Unlock()
}

func (c *frameCollector) snapshot() []relay.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]relay.Frame(nil), c.frames...)
}

func TestForeignFramesAreRebroadcast(t *testing.T) {
	rc, cleanup := setupRedis(t)
	defer cleanup()
	logger, _ := logtest.NewNullLogger()

	b := New(rc, "frames", logger)
	var got frameCollector
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		b.Run(ctx, got.collect)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)

	payload, _ := json.Marshal(envelope{
		Instance: "other-instance",
		Frame:    relay.Frame{Event: "tasks-synced", Data: []byte(`[]`)},
	})
	if err := rc.Publish(context.Background(), "frames", payload).Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	frames := got.snapshot()
	if len(frames) != 1 || frames[0].Event != "tasks-synced" {
		t.Fatalf("expected one rebroadcast frame, got %v", frames)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit")
	}
}

func TestOwnFramesAreFiltered(t *testing.T) {
	rc, cleanup := setupRedis(t)
	defer cleanup()
	logger, _ := logtest.NewNullLogger()

	b := New(rc, "frames", logger)
	var got frameCollector
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx, got.collect)
	time.Sleep(50 * time.Millisecond)

	b.Publish(relay.Frame{Event: "task-created", Data: []byte(`{}`)})
	time.Sleep(100 * time.Millisecond)

	if frames := got.snapshot(); len(frames) != 0 {
		t.Fatalf("frames from this instance must not loop back, got %v", frames)
	}
}

func TestPublishReachesOtherInstances(t *testing.T) {
	rc, cleanup := setupRedis(t)
	defer cleanup()
	logger, _ := logtest.NewNullLogger()

	sender := New(rc, "frames", logger)
	receiver := New(rc, "frames", logger)
	var got frameCollector
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sender.Run(ctx, func(relay.Frame) {})
	go receiver.Run(ctx, got.collect)
	time.Sleep(50 * time.Millisecond)

	sender.Publish(relay.Frame{Event: "activity-added", Data: []byte(`{"type":"create"}`)})
	time.Sleep(100 * time.Millisecond)

	frames := got.snapshot()
	if len(frames) != 1 || frames[0].Event != "activity-added" {
		t.Fatalf("expected frame on the other instance, got %v", frames)
	}
}

func TestMalformedPayloadIsIgnored(t *testing.T) {
	rc, cleanup := setupRedis(t)
	defer cleanup()
	logger, hook := logtest.NewNullLogger()

	b := New(rc, "frames", logger)
	var got frameCollector
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx, got.collect)
	time.Sleep(50 * time.Millisecond)

	if err := rc.Publish(context.Background(), "frames", "{not json").Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if frames := got.snapshot(); len(frames) != 0 {
		t.Fatalf("malformed payloads must be dropped, got %v", frames)
	}
	if hook.LastEntry() == nil {
		t.Fatal("expected the parse failure to be logged")
	}
}
