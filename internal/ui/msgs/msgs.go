package msgs

import (
	"github.com/sadopc/apidoc-recorder/internal/recorder"
	"github.com/sadopc/apidoc-recorder/internal/submit"
)

// AppMode represents the current input mode.
type AppMode int

const (
	ModeNormal AppMode = iota
	ModeFilter
	ModeDetail
	ModeScenario
)

func (m AppMode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeFilter:
		return "FILTER"
	case ModeDetail:
		return "DETAIL"
	case ModeScenario:
		return "SUBMIT"
	default:
		return "UNKNOWN"
	}
}

// StateChangedMsg carries a STATE_CHANGED notification from the store.
type StateChangedMsg struct {
	State recorder.State
}

// SubscriptionClosedMsg is sent once the store stops delivering updates.
type SubscriptionClosedMsg struct{}

// ExportDoneMsg reports the outcome of a HAR export.
type ExportDoneMsg struct {
	Path  string
	Count int
	Err   error
}

// SubmitDoneMsg reports the outcome of sending the recording to the backend.
type SubmitDoneMsg struct {
	Result submit.Result
	Err    error
}

// CopiedMsg reports a clipboard write.
type CopiedMsg struct {
	What string
	Err  error
}
