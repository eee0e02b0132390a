// Package notify delivers the alert side effects of workflow transitions.
//
// Workflow operations do not write alerts themselves. They return a list
// of Events, and the caller hands that list to a Dispatcher once the
// transition has committed. A failed alert never undoes a committed
// transition.
package notify

import "github.com/nayeon729/humanmakehub/internal/models"

type EventKind string

const (
	// EventAlertCreated inserts Alert and publishes it to its target.
	EventAlertCreated EventKind = "alert.created"
	// EventAlertsRetired hides every visible alert for (ValueID, Category).
	EventAlertsRetired EventKind = "alerts.retired"
	// EventAlertsRead hides the (ValueID, Category) alerts of Target only.
	EventAlertsRead EventKind = "alerts.read"
)

// Event is one pending side effect. Events are applied in slice order, so
// a retirement listed before a creation never hides the new alert.
type Event struct {
	Kind     EventKind
	Alert    models.Alert
	ValueID  int64
	Category string
	Actor    string
	Target   string
}

func AlertCreated(a models.Alert) Event {
	return Event{Kind: EventAlertCreated, Alert: a}
}

func AlertsRetired(valueID int64, category, actor string) Event {
	return Event{Kind: EventAlertsRetired, ValueID: valueID, Category: category, Actor: actor}
}

func AlertsRead(valueID int64, category, target string) Event {
	return Event{Kind: EventAlertsRead, ValueID: valueID, Category: category, Target: target}
}

// Channel is the pub/sub channel carrying live alerts for a target_user.
func Channel(target string) string {
	return "alerts:" + target
}
