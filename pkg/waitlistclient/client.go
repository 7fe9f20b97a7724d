// Package waitlistclient drives the landing page's join-the-waitlist form
// against POST /api/waitlist.
package waitlistclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	registrationPath = "/api/waitlist"

	// MessageUnknownError is shown when a failed response carries no email error.
	MessageUnknownError = "An unknown error occurred."

	maxResponseBytes = 64 << 10
)

type State int

const (
	Idle State = iota
	Submitting
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

var (
	ErrSubmitInProgress = errors.New("waitlistclient: a submission is already in progress")
	ErrAlreadyJoined    = errors.New("waitlistclient: already joined the waitlist")
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*Form)

func WithHTTPClient(client HTTPDoer) Option {
	return func(f *Form) {
		if client != nil {
			f.client = client
		}
	}
}

// Form holds one visitor's submission state. It is safe for concurrent use;
// at most one submission is in flight at a time.
type Form struct {
	endpoint string
	client   HTTPDoer

	mu      sync.Mutex
	state   State
	message string
}

func NewForm(baseURL string, opts ...Option) *Form {
	f := &Form{
		endpoint: strings.TrimRight(baseURL, "/") + registrationPath,
		client:   &http.Client{Timeout: 15 * time.Second},
		state:    Idle,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// ErrorMessage is the text to render in the error state, empty otherwise.
func (f *Form) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Error {
		return ""
	}
	return f.message
}

// Submit sends email and blocks until the form settles in Success or Error.
// Failed requests are reported through the form state, not the returned
// error, which is reserved for submissions that were never attempted. A
// transport failure shows the transport error text.
func (f *Form) Submit(ctx context.Context, email string) error {
	if err := f.begin(); err != nil {
		return err
	}

	message, ok := f.send(ctx, email)

	f.mu.Lock()
	defer f.mu.Unlock()
	if ok {
		f.state = Success
		f.message = ""
		return nil
	}
	f.state = Error
	f.message = message
	return nil
}

func (f *Form) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case Submitting:
		return ErrSubmitInProgress
	case Success:
		return ErrAlreadyJoined
	}

	f.state = Submitting
	f.message = ""
	return nil
}

type errorBody struct {
	Error json.RawMessage `json:"error"`
}

func (f *Form) send(ctx context.Context, email string) (string, bool) {
	payload, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return MessageUnknownError, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return MessageUnknownError, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err.Error(), false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return "", true
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err.Error(), false
	}

	return emailErrorMessage(body), false
}

// emailErrorMessage extracts error.email[0], the only error detail the form shows.
func emailErrorMessage(body []byte) string {
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return MessageUnknownError
	}

	var fields map[string][]string
	if err := json.Unmarshal(envelope.Error, &fields); err != nil {
		return MessageUnknownError
	}

	if msgs := fields["email"]; len(msgs) > 0 && msgs[0] != "" {
		return msgs[0]
	}

	return MessageUnknownError
}

func (f *Form) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Error {
		return fmt.Sprintf("%s: %s", f.state, f.message)
	}
	return f.state.String()
}
