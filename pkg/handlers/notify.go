package handlers

import (
	"context"
	"fmt"
	"strings"

	"taskboard-backend/pkg/models"
)

// Event is a change other clients may want to hear about
type Event struct {
	EntityKind models.EntityKind
	EntityID   string
	ActorID    string
	Action     string
	// Recipients are user ids or, for invitations, email addresses
	Recipients []string
}

// Notifier delivers events to real-time or email channels. Delivery is
// best-effort and must not fail the request that produced the event.
type Notifier interface {
	Notify(ctx context.Context, evt Event)
}

// LogNotifier only writes events to stdout
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, evt Event) {
	fmt.Printf("📣 %s %s/%s by %s -> [%s]\n", evt.Action, evt.EntityKind, evt.EntityID, evt.ActorID, strings.Join(evt.Recipients, ","))
}

// memberIDs lists the user ids of members, skipping exclude
func memberIDs(members []models.Member, exclude string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if id := m.User.Key(); id != "" && id != exclude {
			out = append(out, id)
		}
	}
	return out
}
