package relay

import (
	"errors"
	"sync"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"kanban-api/domain"
	"kanban-api/store"
)

// RecentActivityCount is the slice of the log sent to a freshly connected
// viewer.
const RecentActivityCount = 50

// ErrUnknownEvent rejects envelopes whose event name is not a known intent.
var ErrUnknownEvent = errors.New("unknown event")

// Persister receives the full collections after every successful mutation.
// Failures are logged and swallowed: in-memory state stays authoritative.
type Persister interface {
	SaveTasks(tasks []domain.Task) error
	SaveActivity(entries []domain.Activity) error
}

// Relay wraps every successful store mutation with an activity entry and a
// fan-out to all connected viewers. One mutex serializes mutations so the
// broadcast stream observes them in a single order.
type Relay struct {
	mu       sync.Mutex
	store    *store.TaskStore
	activity *ActivityLog
	hub      *Hub
	persist  Persister
	publish  func(Frame)
	logger   *log.Logger
}

// New wires a relay over the given store, activity log and hub. persist
// may be nil when persistence is disabled.
func New(st *store.TaskStore, activity *ActivityLog, hub *Hub, persist Persister, logger *log.Logger) *Relay {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Relay{store: st, activity: activity, hub: hub, persist: persist, logger: logger}
}

// SetPublisher installs a tap that receives every broadcast frame, used by
// the cross-instance bridge.
func (r *Relay) SetPublisher(publish func(Frame)) {
	r.publish = publish
}

// Hub exposes the viewer registry.
func (r *Relay) Hub() *Hub { return r.hub }

// TaskCount reports the number of tasks, for health reporting.
func (r *Relay) TaskCount() int { return r.store.Len() }

// HandleEvent applies one viewer intent. On success the matching events are
// broadcast; on any error nothing is emitted and no state changes.
func (r *Relay) HandleEvent(clientID string, env domain.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch env.Event {
	case domain.CreateTask:
		var draft domain.TaskDraft
		if err := sonic.Unmarshal(env.Payload, &draft); err != nil {
			return &domain.ValidationError{Field: "payload", Reason: err.Error()}
		}
		task, err := r.store.Create(draft)
		if err != nil {
			return err
		}
		entry := r.activity.Record(domain.Activity{
			Type:      domain.ActivityCreate,
			TaskID:    task.ID,
			TaskTitle: task.Title,
			UserID:    clientID,
		})
		r.persistState()
		r.emitEvents(domain.TaskCreated, task, entry)
		return nil

	case domain.UpdateTask:
		var patch domain.TaskPatch
		if err := sonic.Unmarshal(env.Payload, &patch); err != nil {
			return &domain.ValidationError{Field: "payload", Reason: err.Error()}
		}
		task, err := r.store.Update(patch.ID, patch)
		if err != nil {
			return err
		}
		entry := r.activity.Record(domain.Activity{
			Type:      domain.ActivityUpdate,
			TaskID:    task.ID,
			TaskTitle: task.Title,
			UserID:    clientID,
		})
		r.persistState()
		r.emitEvents(domain.TaskUpdated, task, entry)
		return nil

	case domain.MoveTask:
		var req domain.MoveRequest
		if err := sonic.Unmarshal(env.Payload, &req); err != nil {
			return &domain.ValidationError{Field: "payload", Reason: err.Error()}
		}
		res, err := r.store.Move(req.ID, req.Status, req.DestinationIndex)
		if err != nil {
			return err
		}
		entry := r.activity.Record(domain.Activity{
			Type:      domain.ActivityMove,
			TaskID:    res.Task.ID,
			TaskTitle: res.Task.Title,
			OldStatus: res.OldStatus,
			NewStatus: res.Task.Status,
			UserID:    clientID,
		})
		r.persistState()
		// Position is implicit in array order, so a move forces a full
		// resync: a delta cannot make divergent local copies converge.
		r.emitEvents(domain.TasksSynced, res.Tasks, entry)
		return nil

	case domain.DeleteTask:
		var req domain.DeleteRequest
		if err := sonic.Unmarshal(env.Payload, &req); err != nil {
			return &domain.ValidationError{Field: "payload", Reason: err.Error()}
		}
		task, err := r.store.Delete(req.ID)
		if err != nil {
			return err
		}
		entry := r.activity.Record(domain.Activity{
			Type:      domain.ActivityDelete,
			TaskID:    task.ID,
			TaskTitle: task.Title,
			UserID:    clientID,
		})
		r.persistState()
		r.emitEvents(domain.TaskDeleted, req, entry)
		return nil

	case domain.AddComment:
		var req domain.CommentRequest
		if err := sonic.Unmarshal(env.Payload, &req); err != nil {
			return &domain.ValidationError{Field: "payload", Reason: err.Error()}
		}
		comment, task, err := r.store.AddComment(req.TaskID, clientID, req.Text)
		if err != nil {
			return err
		}
		entry := r.activity.Record(domain.Activity{
			Type:      domain.ActivityComment,
			TaskID:    task.ID,
			TaskTitle: task.Title,
			UserID:    clientID,
		})
		r.persistState()
		r.emitEvents(domain.CommentAdded, domain.CommentEvent{TaskID: task.ID, Comment: comment}, entry)
		return nil

	case domain.BulkUpdateTasks:
		var patches []domain.Task
		if err := sonic.Unmarshal(env.Payload, &patches); err != nil {
			return &domain.ValidationError{Field: "payload", Reason: err.Error()}
		}
		tasks := r.store.BulkReplace(patches)
		r.persistState()
		r.emit(mustFrame(r.logger, domain.TasksSynced, tasks))
		return nil

	case domain.RequestSync:
		r.sendSync(clientID)
		return nil

	default:
		return ErrUnknownEvent
	}
}

// Connect sends the initial sync to one viewer and announces the new count
// to everyone. The viewer must already be registered with the hub.
func (r *Relay) Connect(id string) {
	r.sendSync(id)
	r.hub.SendTo(id, mustFrame(r.logger, domain.ViewersOnline, r.hub.Roster()))
	r.emit(
		mustFrame(r.logger, domain.ViewersCount, r.hub.Count()),
		mustFrame(r.logger, domain.ViewersOnline, r.hub.Roster()),
	)
}

// Disconnect removes the viewer and announces the updated count and roster.
func (r *Relay) Disconnect(id string) {
	r.hub.Unregister(id)
	r.emit(
		mustFrame(r.logger, domain.ViewersCount, r.hub.Count()),
		mustFrame(r.logger, domain.ViewersOnline, r.hub.Roster()),
	)
}

// sendSync privately resends canonical state to one viewer.
func (r *Relay) sendSync(id string) {
	r.hub.SendTo(id,
		mustFrame(r.logger, domain.TasksSynced, r.store.List()),
		mustFrame(r.logger, domain.ActivitySynced, r.activity.Recent(RecentActivityCount)),
	)
}

// emitEvents broadcasts a mutation delta followed by its activity entry.
func (r *Relay) emitEvents(event string, payload any, entry domain.Activity) {
	r.emit(
		mustFrame(r.logger, event, payload),
		mustFrame(r.logger, domain.ActivityAdded, entry),
	)
}

func (r *Relay) emit(frames ...Frame) {
	r.hub.Broadcast(frames...)
	if r.publish != nil {
		for _, f := range frames {
			r.publish(f)
		}
	}
}

// persistState writes both documents through best-effort. Errors never
// surface to viewers.
func (r *Relay) persistState() {
	if r.persist == nil {
		return
	}
	if err := r.persist.SaveTasks(r.store.List()); err != nil {
		r.logger.WithError(err).Warn("persist tasks")
	}
	if err := r.persist.SaveActivity(r.activity.All()); err != nil {
		r.logger.WithError(err).Warn("persist activity")
	}
}

func mustFrame(logger *log.Logger, event string, v any) Frame {
	f, err := NewFrame(event, v)
	if err != nil {
		logger.WithError(err).Errorf("marshal %s frame", event)
		return Frame{Event: event}
	}
	return f
}
