// Package events publishes best-effort domain events (follows, likes, rooms,
// messages) after the corresponding write has committed. Delivery is
// fire-and-forget: the database stays the source of truth and a failed
// publish never fails the request.
package events

import (
	"context"
	"time"
)

// Type names a domain event. It doubles as the subject suffix on the bus.
type Type string

const (
	UserRegistered Type = "user.registered"
	UserFollowed   Type = "user.followed"
	UserUnfollowed Type = "user.unfollowed"
	PostLiked      Type = "post.liked"
	PostUnliked    Type = "post.unliked"
	RoomOpened     Type = "room.opened"
	MessagePosted  Type = "message.posted"
)

// Event is the wire payload. SubjectID is what the actor acted on (followee,
// post or room); ObjectID carries a secondary id such as the message id.
type Event struct {
	Type       Type      `json:"type"`
	ActorID    string    `json:"actor_id"`
	SubjectID  string    `json:"subject_id"`
	ObjectID   string    `json:"object_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with the current UTC time.
func New(t Type, actorID, subjectID, objectID string) Event {
	return Event{
		Type:       t,
		ActorID:    actorID,
		SubjectID:  subjectID,
		ObjectID:   objectID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher sends events to a bus.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Noop discards events. It is used when no bus is configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }
