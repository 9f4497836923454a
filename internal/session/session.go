// Package session holds the single pending draft between a successful
// classification and the user's confirm or cancel decision.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dyuan/voiceledger/internal/ledger"
)

// ErrNoPendingDraft is returned by Confirm and Edit when nothing is pending.
var ErrNoPendingDraft = errors.New("session: no pending draft")

// Session owns the pending-draft slot and mints confirmed records into the
// store. At most one draft is pending; a second Present overwrites the first
// (last write wins, no queueing).
type Session struct {
	store *ledger.Store
	log   zerolog.Logger

	mu      sync.Mutex
	pending *ledger.Draft

	newID     func() string
	nowMillis func() int64
}

// New builds a session over the store.
func New(store *ledger.Store, log zerolog.Logger) *Session {
	return &Session{
		store:     store,
		log:       log,
		newID:     uuid.NewString,
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
}

// Present stores draft as the pending candidate, replacing any previous one.
func (s *Session) Present(draft ledger.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &draft
}

// Pending returns a copy of the pending draft, if any.
func (s *Session) Pending() (ledger.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return ledger.Draft{}, false
	}
	return *s.pending, true
}

// Patch carries field-by-field edits to the pending draft. Nil fields are
// left untouched.
type Patch struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Category    *ledger.Category `json:"category,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Type        *ledger.Type     `json:"type,omitempty"`
}

// Edit applies a patch to the pending draft. Values outside the closed sets
// are rejected, mirroring what the input widgets enforce by construction.
func (s *Session) Edit(patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return ErrNoPendingDraft
	}

	if patch.Amount != nil && patch.Amount.IsNegative() {
		return fmt.Errorf("session: amount must be non-negative, got %s", patch.Amount)
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return fmt.Errorf("session: unknown category %q", *patch.Category)
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return fmt.Errorf("session: unknown type %q", *patch.Type)
	}
	if patch.Date != nil && !ledger.ValidDate(*patch.Date) {
		return fmt.Errorf("session: invalid date %q", *patch.Date)
	}

	if patch.Amount != nil {
		s.pending.Amount = *patch.Amount
	}
	if patch.Category != nil {
		s.pending.Category = *patch.Category
	}
	if patch.Description != nil {
		s.pending.Description = *patch.Description
	}
	if patch.Date != nil {
		s.pending.Date = *patch.Date
	}
	if patch.Type != nil {
		s.pending.Type = *patch.Type
	}
	return nil
}

// Confirm mints an immutable record from the pending draft, appends it to the
// store and clears the slot. The draft stays pending if persistence fails, so
// the user can retry without losing their edits.
func (s *Session) Confirm() (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return ledger.Transaction{}, ErrNoPendingDraft
	}

	tx := ledger.Transaction{
		ID:          s.newID(),
		Amount:      s.pending.Amount,
		Category:    s.pending.Category,
		Description: s.pending.Description,
		Date:        s.pending.Date,
		Type:        s.pending.Type,
		CreatedAt:   s.nowMillis(),
	}

	if err := s.store.Append(tx); err != nil {
		return ledger.Transaction{}, err
	}

	s.pending = nil
	s.log.Info().
		Str("id", tx.ID).
		Str("category", string(tx.Category)).
		Str("type", string(tx.Type)).
		Msg("Transaction confirmed")
	return tx, nil
}

// Cancel discards the pending draft without touching the store.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}
