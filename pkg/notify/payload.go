package notify

import (
	"encoding/json"
	"time"

	"atrium-api/websocket"
)

// Severity classifies a notification for display.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityNeutral Severity = "neutral"
)

// TargetKind selects the delivery audience.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetUser
	TargetTeam
	TargetGlobal
	TargetSession
)

// Target identifies who a notification is for.
type Target struct {
	Kind      TargetKind
	UserID    int
	TeamID    int
	SessionID string
}

// Channel derives the realtime channel name for the target.
func (t Target) Channel() string {
	switch t.Kind {
	case TargetUser:
		return websocket.UserChannel(t.UserID)
	case TargetTeam:
		return websocket.TeamChannel(t.TeamID)
	case TargetGlobal:
		return websocket.GlobalChannel()
	case TargetSession:
		return websocket.SessionChannel(t.SessionID)
	default:
		return ""
	}
}

// Payload is one built notification. It is immutable after construction;
// each sink serializes it independently so mutating one sink's view can
// never leak into another.
type Payload struct {
	Title     string
	Content   string
	Severity  Severity
	Icon      string
	Link      string
	Target    Target
	CreatedAt time.Time
}

// toastData is the wire shape broadcast as toast.received.
type toastData struct {
	Title     string   `json:"title"`
	Content   string   `json:"content,omitempty"`
	Severity  Severity `json:"severity"`
	Icon      string   `json:"icon,omitempty"`
	Link      string   `json:"link,omitempty"`
	CreatedAt string   `json:"createdAt"`
}

// ToastData serializes the payload for the realtime toast sink.
func (p Payload) ToastData() interface{} {
	return toastData{
		Title:     p.Title,
		Content:   p.Content,
		Severity:  p.Severity,
		Icon:      p.Icon,
		Link:      p.Link,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// DatabaseRecord serializes the payload for the durable sink.
func (p Payload) DatabaseRecord() ([]byte, error) {
	return json.Marshal(struct {
		Title   string `json:"title"`
		Content string `json:"content,omitempty"`
		Icon    string `json:"icon,omitempty"`
		Link    string `json:"link,omitempty"`
	}{
		Title:   p.Title,
		Content: p.Content,
		Icon:    p.Icon,
		Link:    p.Link,
	})
}
