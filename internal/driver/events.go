package driver

// Stage identifies a pipeline phase for progress reporting.
type Stage uint8

const (
	StageParse Stage = iota
	StageExpand
)

// Status is the per-file state within a stage.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusCached
	StatusError
)

// Event is one progress update emitted by ExpandDir.
type Event struct {
	File   string
	Stage  Stage
	Status Status
}

func emit(ch chan<- Event, file string, stage Stage, status Status) {
	if ch == nil {
		return
	}
	ch <- Event{File: file, Stage: stage, Status: status}
}
