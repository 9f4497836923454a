package ledger

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dyuan/voiceledger/internal/storage"
)

// TransactionsSlot is the fixed slot name holding the serialized ledger.
const TransactionsSlot = "transactions"

// Store owns the in-memory transaction sequence and keeps the durable slot in
// sync: the whole store is re-serialized after every mutation. It is guarded
// by a mutex so the HTTP handlers can share the single instance.
type Store struct {
	mu   sync.Mutex
	slot storage.Slot
	log  zerolog.Logger
	txs  []Transaction
}

// NewStore returns an empty store bound to slot. Call Load to pull persisted
// state before first use.
func NewStore(slot storage.Slot, log zerolog.Logger) *Store {
	return &Store{slot: slot, log: log}
}

// Load replaces the in-memory sequence with the persisted one. An absent slot
// yields an empty store; malformed content is logged and likewise treated as
// empty. Load never fails the caller: a broken ledger file must not block
// startup.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs = nil

	data, ok, err := s.slot.Read(TransactionsSlot)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read transactions slot, starting empty")
		return
	}
	if !ok {
		return
	}

	var txs []Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		s.log.Error().Err(err).Msg("Failed to parse transactions slot, starting empty")
		return
	}
	s.txs = txs
}

// Append adds one record and rewrites the slot.
func (s *Store) Append(tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs = append(s.txs, tx)
	if err := s.persistLocked(); err != nil {
		s.txs = s.txs[:len(s.txs)-1]
		return err
	}
	return nil
}

// Remove deletes the record with the given identifier and rewrites the slot.
// Removing an unknown identifier is a no-op. A failed slot write restores the
// record so memory and disk stay in step.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, tx := range s.txs {
		if tx.ID == id {
			removed := tx
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			if err := s.persistLocked(); err != nil {
				s.txs = append(s.txs, Transaction{})
				copy(s.txs[i+1:], s.txs[i:])
				s.txs[i] = removed
				return err
			}
			return nil
		}
	}
	return nil
}

// Snapshot returns a copy of the current sequence for read-only consumption.
func (s *Store) Snapshot() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.txs, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: marshal transactions: %w", err)
	}
	if err := s.slot.Write(TransactionsSlot, data); err != nil {
		return fmt.Errorf("ledger: persist transactions: %w", err)
	}
	return nil
}

// SortForDisplay orders records by transaction date descending, breaking ties
// on creation time descending. Insertion order carries no meaning.
func SortForDisplay(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}
