package verify

import "time"

// Stage names a group of checks.
type Stage string

const (
	// StageSample builds and collapses the sample descriptors.
	StageSample Stage = "sample"
	// StageOrder checks that Compare is a total order.
	StageOrder Stage = "order"
	// StageCollapse checks that collapsing is idempotent.
	StageCollapse Stage = "collapse"
	// StageReify checks reification determinism and variable binding.
	StageReify Stage = "reify"
	// StageClassify checks that every primary tag categorizes.
	StageClassify Stage = "classify"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for one constructor, or for the whole run when
// Ctor is empty.
type Event struct {
	Ctor    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
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

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
