package resources

import (
	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/ir"
)

// Notification statuses and types.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"

	deliveryError = "Failed to deliver notification"
)

var (
	notificationStatuses = []string{NotificationPending, NotificationSent, NotificationFailed}
	notificationTypes    = []string{"email", "sms", "push", "webhook"}
)

// NotificationBehavior offers the send action and the stats summary.
func NotificationBehavior() engine.Behavior {
	return engine.Behavior{
		Actions: map[string]engine.Action{
			"send": {Run: sendNotification},
		},
		Summary: notificationStats,
	}
}

// sendNotification simulates delivery of a pending notification. The
// outcome is terminal: sent with sentAt, or failed with an error message.
func sendNotification(tx *engine.Tx, rec, _ ir.IRObject) (ir.IRObject, error) {
	if !tx.CanTransition(rec, NotificationSent) {
		return nil, engine.NewDomainError("Can only send pending notifications", nil)
	}

	if tx.Succeeded() {
		rec["status"] = ir.IRString(NotificationSent)
		rec["sentAt"] = tx.Now()
		delete(rec, "error")
	} else {
		rec["status"] = ir.IRString(NotificationFailed)
		rec["error"] = ir.IRString(deliveryError)
		delete(rec, "sentAt")
	}

	if err := tx.Put(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// notificationStats counts notifications by status and by type.
func notificationStats(recs []ir.IRObject) ir.IRObject {
	c := engine.Aggregate(recs, "status", notificationStatuses, "type", notificationTypes)

	byType := make(ir.IRObject, len(notificationTypes))
	for _, t := range notificationTypes {
		byType[t] = ir.IRInt(c.ByGroup[t])
	}

	stats := ir.IRObject{
		"total":  ir.IRInt(c.Total),
		"byType": byType,
	}
	for _, s := range notificationStatuses {
		stats[s] = ir.IRInt(c.ByStatus[s])
	}
	return stats
}
