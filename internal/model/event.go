package model

// EventKind is a closed set of Cursor hook events plus the EventUnknown catch-all.
type EventKind string

const (
	EventStop                 EventKind = "stop"
	EventBeforeShellExecution EventKind = "beforeShellExecution"
	EventBeforeMCPExecution   EventKind = "beforeMCPExecution"
	EventUnknown              EventKind = "unknown"
)

// KnownEvents lists the recognized kinds in hooks.json order.
var KnownEvents = []EventKind{EventStop, EventBeforeShellExecution, EventBeforeMCPExecution}

// NormalizeEvent maps a raw hook event name to an EventKind. Matching is exact and case-sensitive.
func NormalizeEvent(raw string) EventKind {
	for _, k := range KnownEvents {
		if raw == string(k) {
			return k
		}
	}
	return EventUnknown
}
