// Package eventbus carries progress and terminal events from a background
// worker to the HTTP handler streaming them out as server-sent events.
package eventbus

import "time"

// Type identifies the kind of an Event.
type Type string

const (
	TypeProgress        Type = "progress"
	TypeAwaitingConfirm  Type = "awaiting_confirm"
	TypeConfirmed        Type = "confirmed"
	TypeCaptcha          Type = "captcha"
	TypeError            Type = "error"
	TypeDone             Type = "done"
	TypePing             Type = "ping"
)

// Event is the unit published by any worker (apply, resume-tailor, cover-letter).
type Event struct {
	Type           Type              `json:"type"`
	JobKey         string            `json:"job_key"`
	Message        string            `json:"message,omitempty"`
	HTML           string            `json:"html,omitempty"`
	ScreenshotPath string            `json:"screenshot_path,omitempty"`
	FieldsFilled   map[string]string `json:"fields_filled,omitempty"`
	At             time.Time         `json:"at"`
}

// Progress builds a progress event for jobKey with the given message.
func Progress(jobKey, message string) Event {
	return Event{Type: TypeProgress, JobKey: jobKey, Message: message, At: time.Now()}
}

// AwaitingConfirm builds the event that signals a worker is blocked on the confirmation gate.
func AwaitingConfirm(jobKey, message string) Event {
	return Event{Type: TypeAwaitingConfirm, JobKey: jobKey, Message: message, At: time.Now()}
}

// Confirmed builds the event emitted once a human has confirmed the pending action.
func Confirmed(jobKey, message string) Event {
	return Event{Type: TypeConfirmed, JobKey: jobKey, Message: message, At: time.Now()}
}

// Captcha builds the event emitted when a challenge is detected mid-flow.
func Captcha(jobKey, message, screenshotPath string) Event {
	return Event{Type: TypeCaptcha, JobKey: jobKey, Message: message, ScreenshotPath: screenshotPath, At: time.Now()}
}

// Err builds the terminal-adjacent error event. It is always followed by a Done event.
func Err(jobKey, message string) Event {
	return Event{Type: TypeError, JobKey: jobKey, Message: message, At: time.Now()}
}

// Done builds the terminal event. Exactly one is ever emitted per session.
func Done(jobKey, message string) Event {
	return Event{Type: TypeDone, JobKey: jobKey, Message: message, At: time.Now()}
}

// IsTerminal reports whether the event ends its session's stream.
func (e Event) IsTerminal() bool {
	return e.Type == TypeDone
}
