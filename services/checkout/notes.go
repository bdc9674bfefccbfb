package checkout

import (
	"context"
	"html"
	"strings"
	"unicode/utf8"
)

const maxOrderNotesLength = 500

func (s *service) setOrderNotes(c context.Context, key SessionKey, notes string) (Result, error) {
	notes = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(notes)))
	if utf8.RuneCountInString(notes) > maxOrderNotesLength {
		return s.getState(c, key), newValidationError("notes", "notes are limited to 500 characters")
	}

	return s.mutate(c, key, func(session *CheckoutSession) error {
		session.OrderNotes = notes
		return nil
	})
}
