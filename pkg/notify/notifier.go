package notify

import (
	"errors"
	"fmt"
	"time"

	"atrium-api/pkg/events"
)

// Broadcaster delivers an event to every subscriber of a channel.
type Broadcaster interface {
	Broadcast(channel, event string, data interface{}) error
}

// Store persists one notification row per recipient. Implementations are
// expected to fire their own change hook for each created row.
type Store interface {
	CreateForUsers(userIDs []int, severity string, payload []byte) error
}

// Recipients resolves target audiences to concrete user ids.
type Recipients interface {
	TeamMemberIDs(teamID int) ([]int, error)
	ActiveUserIDs() ([]int, error)
}

// ErrSessionPersist is returned when persistence is requested for a
// session target; session channels have no durable owner to write for.
var ErrSessionPersist = errors.New("session notifications cannot be persisted")

// ErrNoTarget is returned when Send is called without a target.
var ErrNoTarget = errors.New("notification has no target")

// Notifier owns the delivery sinks and hands out builders.
type Notifier struct {
	store       Store
	recipients  Recipients
	broadcaster Broadcaster
}

func New(store Store, recipients Recipients, broadcaster Broadcaster) *Notifier {
	return &Notifier{store: store, recipients: recipients, broadcaster: broadcaster}
}

// Builder accumulates notification state; Send builds the immutable
// payload once and fans it out.
type Builder struct {
	n        *Notifier
	title    string
	content  string
	severity Severity
	icon     string
	link     string
	target   Target
	persist  bool
}

func (n *Notifier) Builder() *Builder {
	return &Builder{n: n, severity: SeverityNeutral}
}

func (n *Notifier) Success(title string) *Builder { return n.Builder().severityTitle(SeveritySuccess, title) }
func (n *Notifier) Info(title string) *Builder    { return n.Builder().severityTitle(SeverityInfo, title) }
func (n *Notifier) Warning(title string) *Builder { return n.Builder().severityTitle(SeverityWarning, title) }
func (n *Notifier) Error(title string) *Builder   { return n.Builder().severityTitle(SeverityError, title) }
func (n *Notifier) Neutral(title string) *Builder { return n.Builder().severityTitle(SeverityNeutral, title) }

func (b *Builder) severityTitle(s Severity, title string) *Builder {
	b.severity = s
	b.title = title
	return b
}

func (b *Builder) Content(content string) *Builder { b.content = content; return b }
func (b *Builder) Icon(icon string) *Builder       { b.icon = icon; return b }
func (b *Builder) Link(link string) *Builder       { b.link = link; return b }
func (b *Builder) Persist() *Builder               { b.persist = true; return b }

func (b *Builder) ToUser(userID int) *Builder {
	b.target = Target{Kind: TargetUser, UserID: userID}
	return b
}

func (b *Builder) ToTeam(teamID int) *Builder {
	b.target = Target{Kind: TargetTeam, TeamID: teamID}
	return b
}

func (b *Builder) ToSession(sessionID string) *Builder {
	b.target = Target{Kind: TargetSession, SessionID: sessionID}
	return b
}

func (b *Builder) Global() *Builder {
	b.target = Target{Kind: TargetGlobal}
	return b
}

// Send performs the fan-out: build one payload, write one durable record
// per recipient when persistence is requested, then broadcast the toast.
// Failures of either sink surface to the caller; nothing is dropped
// silently.
func (b *Builder) Send() error {
	if b.target.Kind == TargetNone {
		return ErrNoTarget
	}
	payload := Payload{
		Title:     b.title,
		Content:   b.content,
		Severity:  b.severity,
		Icon:      b.icon,
		Link:      b.link,
		Target:    b.target,
		CreatedAt: time.Now(),
	}

	if b.persist {
		userIDs, err := b.n.resolveRecipients(b.target)
		if err != nil {
			return err
		}
		record, err := payload.DatabaseRecord()
		if err != nil {
			return fmt.Errorf("serialize notification: %w", err)
		}
		if err := b.n.store.CreateForUsers(userIDs, string(payload.Severity), record); err != nil {
			return fmt.Errorf("persist notification: %w", err)
		}
	}

	if err := b.n.broadcaster.Broadcast(payload.Target.Channel(), events.ToastReceived, payload.ToastData()); err != nil {
		return fmt.Errorf("broadcast notification: %w", err)
	}
	return nil
}

func (n *Notifier) resolveRecipients(target Target) ([]int, error) {
	switch target.Kind {
	case TargetUser:
		return []int{target.UserID}, nil
	case TargetTeam:
		return n.recipients.TeamMemberIDs(target.TeamID)
	case TargetGlobal:
		return n.recipients.ActiveUserIDs()
	case TargetSession:
		return nil, ErrSessionPersist
	default:
		return nil, ErrNoTarget
	}
}
