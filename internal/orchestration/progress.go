package orchestration

import "sync"

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventCollectStart   EventType = "collect_start"
	EventCollectDone    EventType = "collect_complete"
	EventRunStart       EventType = "run_start"
	EventCallStart      EventType = "call_start"
	EventCallComplete   EventType = "call_complete"
	EventCallSkipped    EventType = "call_skipped"
	EventCallFailed     EventType = "call_failed"
	EventClassified     EventType = "classified"
	EventClassifyFailed EventType = "classify_failed"
	EventBatchComplete  EventType = "batch_complete"
)

// ProgressEvent represents a progress update. Num and Total count calls for
// collection events and responses for classification events.
type ProgressEvent struct {
	EventType  EventType
	Label      string
	Num        int
	Total      int
	RunID      string
	RunNum     int
	TotalRuns  int
	DurationMs int64
	Err        error
	Details    map[string]any
}

// progress fans events out to registered listeners.
type progress struct {
	mu        sync.Mutex
	listeners []ProgressListener
}

// OnProgress registers a progress listener
func (p *progress) OnProgress(listener ProgressListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, listener)
}

func (p *progress) notify(event ProgressEvent) {
	p.mu.Lock()
	listeners := make([]ProgressListener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}
