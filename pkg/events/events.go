package events

// Realtime event names emitted on notification channels.
const (
	ToastReceived       = "toast.received"
	NotificationChanged = "notification.changed"
)

// Actions carried by NotificationChanged events.
const (
	ActionCreated      = "created"
	ActionUpdated      = "updated"
	ActionDeleted      = "deleted"
	ActionRestored     = "restored"
	ActionForceDeleted = "forceDeleted"
)

// NotificationChangedEvent is broadcast to the owning user's private
// channel on every persisted-notification mutation, whatever code path
// performed it. These structs are intentionally small and versionable;
// changes should be additive.
type NotificationChangedEvent struct {
	NotificationID int    `json:"notificationId"`
	Action         string `json:"action"`
}
