// Package services – RoomService
//
// RoomService is the conversation manager for two-party direct-message
// rooms. Two rules carry the design:
//
//   - One room per unordered pair. Open inserts the room (keyed by its
//     canonical pair key) and both entries in a single transaction. If the
//     pair key already exists the transaction rolls back and the existing
//     room is re-read, so "start DM" from either side, any number of times,
//     lands in the same room. A partially created room is never visible.
//   - Entry existence is the only authorization. Every read or write of a
//     room goes through Authorize before touching the message log, and a
//     missing room is reported exactly like a room the caller is not in.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/events"
	"github.com/tbourn/go-social-backend/internal/observability"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// RoomService opens rooms, gates access to them and fronts their message log.
type RoomService struct {
	DB       *gorm.DB
	Messages *MessageService
	Events   events.Publisher

	// IdempotencyTTL is how long an Idempotency-Key on PostMessageOnce is
	// remembered; <= 0 means 24h.
	IdempotencyTTL time.Duration
}

// NewRoomService constructs a RoomService.
func NewRoomService(db *gorm.DB, msgs *MessageService, pub events.Publisher) *RoomService {
	return &RoomService{DB: db, Messages: msgs, Events: pub, IdempotencyTTL: 24 * time.Hour}
}

// RoomDetail is a room with its participants and full ordered log.
type RoomDetail struct {
	Room         domain.Room
	Participants []domain.User
	Messages     []domain.Message
}

// RoomSummary is one row of a user's room list.
type RoomSummary struct {
	Room         domain.Room
	Participants []domain.User
	LastMessage  *domain.Message
	MessageCount int64
	// LastActivity is the last message time, or the room creation time.
	LastActivity time.Time
}

func (s *RoomService) span(ctx context.Context, name, userID, roomID string) (context.Context, trace.Span) {
	return otel.Tracer("services/RoomService").Start(ctx, name,
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("room.id", roomID),
		),
	)
}

// Open returns the room shared by actorID and peerID, creating it (with both
// entries) if needed. created reports whether this call created it.
func (s *RoomService) Open(ctx context.Context, actorID, peerID string) (detail *RoomDetail, created bool, err error) {
	ctx, span := s.span(ctx, "Open", actorID, "")
	defer span.End()

	if err := checkIDs(actorID, peerID); err != nil {
		return nil, false, err
	}
	if actorID == peerID {
		return nil, false, ErrSelfRoom
	}
	ok, err := repo.UserExists(ctx, s.DB, peerID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, ErrUserNotFound
	}

	var room *domain.Room
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, _, err := repo.CreateRoomWithEntries(ctx, tx, actorID, peerID)
		room = r
		return err
	})
	created = txErr == nil
	if txErr != nil {
		if !repo.IsDuplicate(txErr) {
			zerolog.Ctx(ctx).Error().Err(txErr).Str("peer_id", peerID).Msg("room create failed")
			return nil, false, fmt.Errorf("%w: %w", ErrRoomUnavailable, txErr)
		}
		observability.CreateConflicts.WithLabelValues("room").Inc()
		room, err = repo.GetRoomByPair(ctx, s.DB, actorID, peerID)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %w", ErrRoomUnavailable, err)
		}
	}
	span.SetAttributes(attribute.String("room.id", room.ID), attribute.Bool("room.created", created))

	detail, err = s.detail(ctx, room)
	if err != nil {
		return nil, false, err
	}
	if created {
		observability.RoomsOpened.WithLabelValues(observability.ResultCreated).Inc()
		publish(ctx, s.Events, events.New(events.RoomOpened, actorID, room.ID, peerID))
	} else {
		observability.RoomsOpened.WithLabelValues(observability.ResultReused).Inc()
	}
	return detail, created, nil
}

// Authorize returns nil iff userID holds an entry for roomID. It is the one
// gate for every room read and write.
func (s *RoomService) Authorize(ctx context.Context, roomID, userID string) error {
	if err := checkIDs(roomID, userID); err != nil {
		return err
	}
	ok, err := repo.HasEntry(ctx, s.DB, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoomForbidden
	}
	return nil
}

// Get returns the room with participants and full log, if callerID is a member.
func (s *RoomService) Get(ctx context.Context, callerID, roomID string) (*RoomDetail, error) {
	ctx, span := s.span(ctx, "Get", callerID, roomID)
	defer span.End()

	if err := s.Authorize(ctx, roomID, callerID); err != nil {
		return nil, err
	}
	room, err := repo.GetRoom(ctx, s.DB, roomID)
	if errors.Is(err, repo.ErrNotFound) {
		// deleted after the entry check
		return nil, ErrRoomForbidden
	}
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, room)
}

// ListFor returns every room userID belongs to, most recent activity first
// (ties by room id).
func (s *RoomService) ListFor(ctx context.Context, userID string) ([]RoomSummary, error) {
	ctx, span := s.span(ctx, "ListFor", userID, "")
	defer span.End()

	if err := checkIDs(userID); err != nil {
		return nil, err
	}
	rooms, err := repo.ListRoomsForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return []RoomSummary{}, nil
	}
	ids := lo.Map(rooms, func(r domain.Room, _ int) string { return r.ID })

	participants, err := s.participants(ctx, ids...)
	if err != nil {
		return nil, err
	}
	last, err := repo.LastMessages(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	counts, err := repo.MessageCounts(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		sum := RoomSummary{
			Room:         r,
			Participants: participants[r.ID],
			MessageCount: counts[r.ID],
			LastActivity: r.CreatedAt,
		}
		if m, ok := last[r.ID]; ok {
			sum.LastMessage = &m
			sum.LastActivity = m.CreatedAt
		}
		out = append(out, sum)
	}
	slices.SortFunc(out, func(a, b RoomSummary) int {
		if c := b.LastActivity.Compare(a.LastActivity); c != 0 {
			return c
		}
		return strings.Compare(a.Room.ID, b.Room.ID)
	})
	return out, nil
}

// PostMessage appends content to roomID as actorID after authorizing.
func (s *RoomService) PostMessage(ctx context.Context, actorID, roomID, content string) (*domain.Message, error) {
	ctx, span := s.span(ctx, "PostMessage", actorID, roomID)
	defer span.End()

	if err := s.Authorize(ctx, roomID, actorID); err != nil {
		return nil, err
	}
	m, err := s.Messages.Append(ctx, roomID, actorID, content)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.New(events.MessagePosted, actorID, roomID, m.ID))
	return m, nil
}

// PostMessageOnce is PostMessage keyed by a client Idempotency-Key. A retry
// with the same (actor, room, key) inside the TTL returns the message stored
// by the first call with replayed=true. The key is claimed in the append
// transaction, so concurrent retries append at most one message. An empty
// key behaves like PostMessage.
func (s *RoomService) PostMessageOnce(ctx context.Context, actorID, roomID, key, content string) (m *domain.Message, replayed bool, err error) {
	if key == "" {
		m, err = s.PostMessage(ctx, actorID, roomID, content)
		return m, false, err
	}
	ctx, span := s.span(ctx, "PostMessageOnce", actorID, roomID)
	defer span.End()

	if err := s.Authorize(ctx, roomID, actorID); err != nil {
		return nil, false, err
	}
	if prev := s.replay(ctx, actorID, roomID, key); prev != nil {
		return prev, true, nil
	}

	m, err = s.Messages.AppendKeyed(ctx, roomID, actorID, content, Claim{Key: key, TTL: s.IdempotencyTTL})
	if errors.Is(err, ErrKeyClaimed) {
		// a concurrent request with the same key committed first
		if prev := s.replay(ctx, actorID, roomID, key); prev != nil {
			span.SetAttributes(attribute.Bool("replayed", true))
			return prev, true, nil
		}
		return nil, false, err
	}
	if err != nil {
		return nil, false, err
	}
	publish(ctx, s.Events, events.New(events.MessagePosted, actorID, roomID, m.ID))
	return m, false, nil
}

// HasReplay reports whether a live idempotency record exists for the tuple.
func (s *RoomService) HasReplay(ctx context.Context, actorID, roomID, key string, now time.Time) (bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, actorID, roomID, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return rec != nil && err == nil, err
}

// ListMessages returns one page of roomID's log if callerID is a member.
func (s *RoomService) ListMessages(ctx context.Context, callerID, roomID string, page, pageSize int) ([]domain.Message, int64, error) {
	ctx, span := s.span(ctx, "ListMessages", callerID, roomID)
	defer span.End()

	if err := s.Authorize(ctx, roomID, callerID); err != nil {
		return nil, 0, err
	}
	return s.Messages.ListPage(ctx, roomID, page, pageSize)
}

// LogVersion returns (count, last seq) of roomID's log for conditional GETs,
// if callerID is a member.
func (s *RoomService) LogVersion(ctx context.Context, callerID, roomID string) (count, lastSeq int64, err error) {
	if err := s.Authorize(ctx, roomID, callerID); err != nil {
		return 0, 0, err
	}
	return repo.MessagesStats(ctx, s.DB, roomID)
}

func (s *RoomService) replay(ctx context.Context, actorID, roomID, key string) *domain.Message {
	rec, err := repo.GetIdempotency(ctx, s.DB, actorID, roomID, key, time.Now().UTC())
	if err != nil || rec == nil {
		return nil
	}
	prev, err := s.Messages.Get(ctx, rec.MessageID)
	if err != nil {
		return nil
	}
	return prev
}

func (s *RoomService) detail(ctx context.Context, room *domain.Room) (*RoomDetail, error) {
	participants, err := s.participants(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.Messages.List(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	return &RoomDetail{Room: *room, Participants: participants[room.ID], Messages: msgs}, nil
}

// participants maps each room id to its members, ordered by user id.
func (s *RoomService) participants(ctx context.Context, roomIDs ...string) (map[string][]domain.User, error) {
	entries, err := repo.ListEntries(ctx, s.DB, roomIDs...)
	if err != nil {
		return nil, err
	}
	userIDs := lo.Uniq(lo.Map(entries, func(e domain.Entry, _ int) string { return e.UserID }))
	users, err := repo.ListUsersByIDs(ctx, s.DB, userIDs)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(users, func(u domain.User) string { return u.ID })

	out := make(map[string][]domain.User, len(roomIDs))
	for _, e := range entries {
		u, ok := byID[e.UserID]
		if !ok {
			// entry for an unregistered id; keep the id visible
			u = domain.User{ID: e.UserID}
		}
		out[e.RoomID] = append(out[e.RoomID], u)
	}
	return out, nil
}
