package checkrun

import "time"

// Stage describes a step of checking one file.
type Stage string

const (
	// StageResolve is the resolve step.
	StageResolve Stage = "resolve"
	// StageLoad is the load (transform) step.
	StageLoad Stage = "load"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is being processed.
	StatusWorking Status = "working"
	// StatusDone indicates the file passed.
	StatusDone Status = "done"
	// StatusError indicates the file failed.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the whole run when File is
// empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// FileResult is the outcome for one entry file.
type FileResult struct {
	Path    string
	URL     string
	Stage   Stage // last stage reached
	Err     error
	Bytes   int // size of the transformed source
	Elapsed time.Duration
}

// OK reports whether the file resolved and loaded.
func (r FileResult) OK() bool { return r.Err == nil }

// Summary aggregates a run.
type Summary struct {
	Files   int
	Failed  int
	Elapsed time.Duration
}
