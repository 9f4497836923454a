package session

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dyuan/voiceledger/internal/ledger"
)

type memSlot struct {
	data      map[string][]byte
	failWrite bool
}

func newMemSlot() *memSlot {
	return &memSlot{data: make(map[string][]byte)}
}

func (m *memSlot) Read(name string) ([]byte, bool, error) {
	d, ok := m.data[name]
	return d, ok, nil
}

func (m *memSlot) Write(name string, data []byte) error {
	if m.failWrite {
		return errors.New("disk full")
	}
	m.data[name] = data
	return nil
}

func testDraft() ledger.Draft {
	return ledger.Draft{
		Amount:      decimal.NewFromFloat(30.5),
		Category:    ledger.CategoryFood,
		Description: "午饭",
		Date:        "2024-05-06",
		Type:        ledger.TypeExpense,
	}
}

func newTestSession(slot *memSlot) (*Session, *ledger.Store) {
	store := ledger.NewStore(slot, zerolog.Nop())
	s := New(store, zerolog.Nop())
	s.newID = func() string { return "fixed-id" }
	s.nowMillis = func() int64 { return 1714990000000 }
	return s, store
}

func TestPendingEmpty(t *testing.T) {
	s, _ := newTestSession(newMemSlot())
	if _, ok := s.Pending(); ok {
		t.Error("fresh session must have no pending draft")
	}
}

func TestPresentLastWriteWins(t *testing.T) {
	s, _ := newTestSession(newMemSlot())

	first := testDraft()
	s.Present(first)

	second := testDraft()
	second.Description = "晚饭"
	s.Present(second)

	got, ok := s.Pending()
	if !ok {
		t.Fatal("expected a pending draft")
	}
	if got.Description != "晚饭" {
		t.Errorf("pending = %q, want the later draft", got.Description)
	}
}

func TestConfirmMintsRecord(t *testing.T) {
	s, store := newTestSession(newMemSlot())
	s.Present(testDraft())

	tx, err := s.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if tx.ID != "fixed-id" {
		t.Errorf("id = %q", tx.ID)
	}
	if tx.CreatedAt != 1714990000000 {
		t.Errorf("createdAt = %d", tx.CreatedAt)
	}
	if !tx.Amount.Equal(decimal.NewFromFloat(30.5)) {
		t.Errorf("amount = %s", tx.Amount)
	}

	if _, ok := s.Pending(); ok {
		t.Error("confirm must clear the pending slot")
	}
	if store.Len() != 1 {
		t.Errorf("store has %d records, want 1", store.Len())
	}
}

func TestConfirmWithoutPending(t *testing.T) {
	s, _ := newTestSession(newMemSlot())
	if _, err := s.Confirm(); !errors.Is(err, ErrNoPendingDraft) {
		t.Fatalf("got %v, want ErrNoPendingDraft", err)
	}
}

func TestConfirmKeepsDraftOnPersistFailure(t *testing.T) {
	slot := newMemSlot()
	slot.failWrite = true
	s, store := newTestSession(slot)
	s.Present(testDraft())

	if _, err := s.Confirm(); err == nil {
		t.Fatal("expected persist failure to surface")
	}
	if _, ok := s.Pending(); !ok {
		t.Error("failed confirm must keep the draft so the user can retry")
	}
	if store.Len() != 0 {
		t.Errorf("store must stay empty, has %d records", store.Len())
	}

	// Retry succeeds once the slot recovers.
	slot.failWrite = false
	if _, err := s.Confirm(); err != nil {
		t.Fatalf("retry Confirm: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d records after retry, want 1", store.Len())
	}
}

func TestCancelLeavesStoreUntouched(t *testing.T) {
	s, store := newTestSession(newMemSlot())
	s.Present(testDraft())
	s.Cancel()

	if _, ok := s.Pending(); ok {
		t.Error("cancel must clear the pending slot")
	}
	if store.Len() != 0 {
		t.Error("cancel must not write to the store")
	}
}

func TestEditAppliesPartialPatch(t *testing.T) {
	s, _ := newTestSession(newMemSlot())
	s.Present(testDraft())

	amount := decimal.NewFromInt(42)
	cat := ledger.CategoryTransport
	if err := s.Edit(Patch{Amount: &amount, Category: &cat}); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	got, _ := s.Pending()
	if !got.Amount.Equal(amount) {
		t.Errorf("amount = %s, want 42", got.Amount)
	}
	if got.Category != cat {
		t.Errorf("category = %q, want 交通", got.Category)
	}
	if got.Description != "午饭" {
		t.Error("untouched fields must survive the patch")
	}
}

func TestEditValidation(t *testing.T) {
	negative := decimal.NewFromInt(-5)
	badCat := ledger.Category("Snacks")
	badType := ledger.Type("TRANSFER")
	badDate := "tomorrow"

	tests := []struct {
		name  string
		patch Patch
	}{
		{"negative amount", Patch{Amount: &negative}},
		{"unknown category", Patch{Category: &badCat}},
		{"unknown type", Patch{Type: &badType}},
		{"invalid date", Patch{Date: &badDate}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSession(newMemSlot())
			s.Present(testDraft())

			if err := s.Edit(tt.patch); err == nil {
				t.Fatal("expected the patch to be rejected")
			}
			got, _ := s.Pending()
			want := testDraft()
			if !got.Amount.Equal(want.Amount) || got.Category != want.Category ||
				got.Date != want.Date || got.Type != want.Type {
				t.Error("rejected patch must leave the draft untouched")
			}
		})
	}
}

func TestEditWithoutPending(t *testing.T) {
	s, _ := newTestSession(newMemSlot())
	amount := decimal.NewFromInt(1)
	if err := s.Edit(Patch{Amount: &amount}); !errors.Is(err, ErrNoPendingDraft) {
		t.Fatalf("got %v, want ErrNoPendingDraft", err)
	}
}
