package request

import (
	"github.com/rs/zerolog"
)

const (
	EventProgress  = "progress"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
	EventFailed    = "failed"
	EventUnknown   = "unknown"
)

// Event is delivered to the Listener on the scheduler goroutine. Everything else about the transfer
// (status code, body, error) is read back through the Request accessors
type Event struct {
	Name    string
	Request *Request

	DownloadTotal int64
	Downloaded    int64
	UploadTotal   int64
	Uploaded      int64
}

func (e Event) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("event", e.Name).
		Int64("dltotal", e.DownloadTotal).
		Int64("dlnow", e.Downloaded).
		Int64("ultotal", e.UploadTotal).
		Int64("ulnow", e.Uploaded)
	if e.Request != nil {
		ev.Str("id", e.Request.ID())
	}
}

// Terminal returns whether this is the last event the request will raise
func (e Event) Terminal() bool {
	return e.Name == EventCompleted || e.Name == EventCancelled || e.Name == EventFailed || e.Name == EventUnknown
}

// Listener receives the events raised by a Request
type Listener interface {
	OnEvent(e Event)
}

// ListenerFunc adapts a plain function into a Listener
type ListenerFunc func(e Event)

func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}

func eventForState(s State) string {
	switch s {
	case Completed:
		return EventCompleted
	case Cancelled:
		return EventCancelled
	case Failed:
		return EventFailed
	}
	return EventUnknown
}
