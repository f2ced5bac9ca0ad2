package relay

import (
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"kanban-api/domain"
)

// Frame is one named event on its way to viewers.
type Frame struct {
	Event string                 `json:"event"`
	Data  sonic.NoCopyRawMessage `json:"data,omitempty"`
}

// NewFrame marshals v into a frame carrying the given event name.
func NewFrame(event string, v any) (Frame, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: data}, nil
}

// ViewerInfo is the roster entry broadcast to clients.
type ViewerInfo struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connectedAt"`
}

type viewer struct {
	info ViewerInfo
	ch   chan Frame
}

const viewerBuffer = 256

// Hub tracks connected viewers and fans frames out to them. Delivery is
// fire-and-forget: a viewer whose buffer is full loses the frame and is
// expected to resynchronize (at-most-once semantics).
type Hub struct {
	mu      sync.Mutex
	viewers map[string]*viewer
}

func NewHub() *Hub {
	return &Hub{viewers: make(map[string]*viewer)}
}

// Register adds a viewer and returns its receive channel.
func (h *Hub) Register(id string) <-chan Frame {
	v := &viewer{
		info: ViewerInfo{ID: id, ConnectedAt: domain.Now()},
		ch:   make(chan Frame, viewerBuffer),
	}
	h.mu.Lock()
	h.viewers[id] = v
	h.mu.Unlock()
	return v.ch
}

// Unregister removes a viewer. Its channel is left for the garbage
// collector; the sender side never closes it.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	delete(h.viewers, id)
	h.mu.Unlock()
}

// Broadcast delivers the frames to every connected viewer without blocking.
func (h *Hub) Broadcast(frames ...Frame) {
	h.mu.Lock()
	for _, v := range h.viewers {
		for _, f := range frames {
			select {
			case v.ch <- f:
			default:
			}
		}
	}
	h.mu.Unlock()
}

// SendTo delivers the frames to a single viewer without blocking. It is a
// no-op for unknown ids.
func (h *Hub) SendTo(id string, frames ...Frame) {
	h.mu.Lock()
	v, ok := h.viewers[id]
	h.mu.Unlock()
	if !ok {
		return
	}
	for _, f := range frames {
		select {
		case v.ch <- f:
		default:
		}
	}
}

// Count reports the number of connected viewers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// Roster returns a snapshot of connected viewers ordered by connect time.
func (h *Hub) Roster() []ViewerInfo {
	h.mu.Lock()
	out := make([]ViewerInfo, 0, len(h.viewers))
	for _, v := range h.viewers {
		out = append(out, v.info)
	}
	h.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ConnectedAt.Before(out[j].ConnectedAt) })
	return out
}
