package payload

import (
	"context"
	"sync"
)

// Ensure Recorder implements Client.
var _ Client = (*Recorder)(nil)

// Submission is one call captured by a Recorder.
type Submission struct {
	Endpoint string
	Body     string
}

// Recorder is a Client that keeps submissions instead of sending them. It
// backs dry runs.
type Recorder struct {
	Response    string
	submissions []Submission
	mu          sync.Mutex
}

// NewRecorder creates a recorder that answers every call with response.
func NewRecorder(response string) *Recorder {
	return &Recorder{Response: response}
}

// Submit records the call and always succeeds unless ctx is done.
func (r *Recorder) Submit(ctx context.Context, endpoint, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.submissions = append(r.submissions, Submission{Endpoint: endpoint, Body: body})

	return r.Response, nil
}

// Submissions returns a copy of the recorded calls in order.
func (r *Recorder) Submissions() []Submission {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Submission, len(r.submissions))
	copy(out, r.submissions)

	return out
}
