// Package upload runs recording transfers as background jobs with progress
// reporting and cooperative cancellation.
package upload

import (
	"encoding/json"
	"time"
)

type State string

const (
	StateStarting   State = "starting"
	StateUploading  State = "uploading"
	StateCompleted  State = "completed"
	StateError      State = "error"
	StateCancelling State = "cancelling"
	StateCancelled  State = "cancelled"
)

// Terminal states have no outgoing transitions.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateError, StateCancelled:
		return true
	}
	return false
}

var transitions = map[State][]State{
	StateStarting:   {StateUploading, StateCancelling, StateError},
	StateUploading:  {StateCompleted, StateError, StateCancelling, StateCancelled},
	StateCancelling: {StateCancelled},
}

func (s State) canMove(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Result is what the remote end answered to a successful transfer.
type Result struct {
	StatusCode int
	Body       []byte
}

// MarshalJSON embeds a JSON body as is and any other body as a string.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		StatusCode int `json:"status_code"`
		Body       any `json:"body,omitempty"`
	}{StatusCode: r.StatusCode}

	switch {
	case len(r.Body) == 0:
	case json.Valid(r.Body):
		out.Body = json.RawMessage(r.Body)
	default:
		out.Body = string(r.Body)
	}
	return json.Marshal(out)
}

// Snapshot is a point-in-time copy of a job. Callers own it.
type Snapshot struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"file_path"`
	TargetURL string    `json:"target_url"`
	State     State     `json:"state"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	Result    *Result   `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Snapshot) clone() Snapshot {
	if s.Result != nil {
		r := *s.Result
		r.Body = append([]byte(nil), s.Result.Body...)
		s.Result = &r
	}
	return s
}

// Percent converts sent/total into a whole percentage in [0, 100]. An empty
// transfer is complete by definition.
func Percent(sent, total int64) int {
	if total <= 0 {
		return 100
	}
	p := sent * 100 / total
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return int(p)
}
