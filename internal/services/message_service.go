// Package services – MessageService
//
// MessageService owns the append-only message log of each room. It is an
// internal component: callers (RoomService) authorize first, so nothing here
// checks membership.
//
// Ordering: every message gets seq = max(seq)+1 inside the inserting
// transaction. Two writers that read the same max collide on the
// (room_id, seq) unique index; the loser retries with a fresh read, bounded
// by MaxAppendAttempts. Readers therefore always see a gap-free prefix
// ordered by seq.
//
// Observability: public methods are OpenTelemetry-instrumented with room id
// and pagination attributes.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/observability"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// MessageService appends to and reads from room logs.
type MessageService struct {
	DB *gorm.DB

	// MaxContentRunes caps a message body; <= 0 uses DefaultMaxContentRunes.
	MaxContentRunes int
	// MaxAppendAttempts bounds seq-collision retries; <= 0 means 5.
	MaxAppendAttempts int
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *gorm.DB, maxContentRunes int) *MessageService {
	return &MessageService{DB: db, MaxContentRunes: maxContentRunes, MaxAppendAttempts: 5}
}

// Append normalises content and appends it to roomID's log as authorID.
func (s *MessageService) Append(ctx context.Context, roomID, authorID, content string) (*domain.Message, error) {
	return s.append(ctx, roomID, authorID, content, nil)
}

// Claim is an idempotency key written in the same transaction as the message
// it names.
type Claim struct {
	Key string
	TTL time.Duration
}

// AppendKeyed is Append guarded by an idempotency claim for (authorID,
// roomID, claim.Key). The claim row is inserted before the message, so of two
// concurrent calls with one key exactly one commits a message. The other
// fails with ErrKeyClaimed and appends nothing.
func (s *MessageService) AppendKeyed(ctx context.Context, roomID, authorID, content string, claim Claim) (*domain.Message, error) {
	return s.append(ctx, roomID, authorID, content, &claim)
}

func (s *MessageService) append(ctx context.Context, roomID, authorID, content string, claim *Claim) (*domain.Message, error) {
	ctx, span := otel.Tracer("services/MessageService").Start(ctx, "Append",
		trace.WithAttributes(
			attribute.String("room.id", roomID),
			attribute.String("user.id", authorID),
			attribute.Bool("idempotent", claim != nil),
		),
	)
	defer span.End()

	body, err := checkContent(content, s.MaxContentRunes)
	if err != nil {
		return nil, err
	}

	attempts := s.MaxAppendAttempts
	if attempts <= 0 {
		attempts = 5
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		var msg *domain.Message
		lastErr = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			id := uuid.NewString()
			if claim != nil {
				ttl := claim.TTL
				if ttl <= 0 {
					ttl = 24 * time.Hour
				}
				if _, err := repo.ClaimIdempotency(ctx, tx, authorID, roomID, claim.Key, id, 201, ttl); err != nil {
					return err
				}
			}
			seq, err := repo.NextSeq(ctx, tx, roomID)
			if err != nil {
				return err
			}
			msg, err = repo.CreateMessage(ctx, tx, id, roomID, authorID, seq, body)
			return err
		})
		if lastErr == nil {
			observability.MessagesPosted.Inc()
			span.SetAttributes(attribute.Int64("message.seq", msg.Seq), attribute.Int("attempts", i+1))
			return msg, nil
		}
		if errors.Is(lastErr, repo.ErrDuplicate) {
			return nil, ErrKeyClaimed
		}
		if repo.IsForeignKey(lastErr) {
			return nil, ErrRoomForbidden
		}
		if !repo.IsDuplicate(lastErr) && !repo.IsBusy(lastErr) {
			return nil, lastErr
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		observability.CreateConflicts.WithLabelValues("message").Inc()
	}
	span.RecordError(lastErr)
	return nil, fmt.Errorf("%w: %w", ErrAppendFailed, lastErr)
}

// List returns the complete log of roomID in seq order.
func (s *MessageService) List(ctx context.Context, roomID string) ([]domain.Message, error) {
	ctx, span := otel.Tracer("services/MessageService").Start(ctx, "List",
		trace.WithAttributes(attribute.String("room.id", roomID)),
	)
	defer span.End()

	return repo.ListMessages(ctx, s.DB, roomID, 0)
}

// ListPage returns one page of roomID's log in seq order plus the total count.
func (s *MessageService) ListPage(ctx context.Context, roomID string, page, pageSize int) ([]domain.Message, int64, error) {
	ctx, span := otel.Tracer("services/MessageService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("room.id", roomID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountMessages(ctx, s.DB, roomID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}
	items, err := repo.ListMessagesPage(ctx, s.DB, roomID, offset, pageSize)
	return items, total, err
}

// Get returns one message by id.
func (s *MessageService) Get(ctx context.Context, id string) (*domain.Message, error) {
	return repo.GetMessage(ctx, s.DB, id)
}
