package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-social-backend/internal/events"
)

// DefaultMaxContentRunes caps message and comment bodies when no limit is
// configured.
const DefaultMaxContentRunes = 2000

// checkIDs returns ErrInvalidID unless every id is a UUID.
func checkIDs(ids ...string) error {
	for _, id := range ids {
		if uuid.Validate(id) != nil {
			return ErrInvalidID
		}
	}
	return nil
}

// normalizeContent converts CRLF/CR to LF, composes to NFC and trims
// surrounding whitespace, so equal-looking text is stored identically.
func normalizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = norm.NFC.String(s)
	return strings.TrimSpace(s)
}

// checkContent normalises raw and enforces non-empty and max rune length.
func checkContent(raw string, maxRunes int) (string, error) {
	s := normalizeContent(raw)
	if s == "" {
		return "", ErrEmptyContent
	}
	if maxRunes <= 0 {
		maxRunes = DefaultMaxContentRunes
	}
	if utf8.RuneCountInString(s) > maxRunes {
		return "", ErrContentTooLong
	}
	return s, nil
}

// publish sends ev after the write has committed. Failures are logged and
// swallowed: events are best effort.
func publish(ctx context.Context, p events.Publisher, ev events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("event", string(ev.Type)).
			Str("subject_id", ev.SubjectID).
			Msg("event publish failed")
	}
}
