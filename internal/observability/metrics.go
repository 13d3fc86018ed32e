package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. Label values are fixed sets so cardinality stays bounded:
//
//   - op:     follow|unfollow, like|unlike
//   - result: created|existing (create ops), removed|absent (delete ops)
//   - entity: relationship|like|room|message
var (
	FollowOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_follow_ops_total",
			Help: "Follow graph mutations by operation and outcome.",
		},
		[]string{"op", "result"},
	)

	LikeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_like_ops_total",
			Help: "Like mutations by operation and outcome.",
		},
		[]string{"op", "result"},
	)

	RoomsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_rooms_opened_total",
			Help: "Room open requests by outcome (created or reused).",
		},
		[]string{"result"},
	)

	MessagesPosted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "social_messages_posted_total",
			Help: "Messages appended to room logs.",
		},
	)

	// CreateConflicts counts unique-index races absorbed by insert-then-refetch.
	CreateConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_create_conflicts_total",
			Help: "Concurrent create races resolved by re-reading the winner.",
		},
		[]string{"entity"},
	)
)

// Result label values.
const (
	ResultCreated  = "created"
	ResultExisting = "existing"
	ResultRemoved  = "removed"
	ResultAbsent   = "absent"
	ResultReused   = "reused"
)

func init() {
	prometheus.MustRegister(FollowOps, LikeOps, RoomsOpened, MessagesPosted, CreateConflicts)
}
