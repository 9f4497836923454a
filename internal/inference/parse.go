package inference

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dyuan/voiceledger/internal/ledger"
)

// rawDraft mirrors the response schema with pointer fields so that omitted
// keys are distinguishable from zero values.
type rawDraft struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Date        *string          `json:"date"`
	Type        *string          `json:"type"`
}

// parseDraft turns the raw model reply into a draft. The reply is untrusted:
// every field is re-checked against its closed set rather than taken at the
// model's word. An unknown category downgrades to 其他; an unknown type or a
// broken date is a malformed response.
func parseDraft(raw string) (ledger.Draft, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return ledger.Draft{}, &MalformedResponseError{Reason: "empty response", Raw: raw}
	}

	var rd rawDraft
	if err := json.Unmarshal([]byte(clean), &rd); err != nil {
		return ledger.Draft{}, &MalformedResponseError{Reason: "invalid JSON: " + err.Error(), Raw: raw}
	}

	for field, present := range map[string]bool{
		"amount":      rd.Amount != nil,
		"category":    rd.Category != nil,
		"description": rd.Description != nil,
		"date":        rd.Date != nil,
		"type":        rd.Type != nil,
	} {
		if !present {
			return ledger.Draft{}, &MalformedResponseError{
				Reason: fmt.Sprintf("missing required field %q", field),
				Raw:    raw,
			}
		}
	}

	if rd.Amount.IsNegative() {
		return ledger.Draft{}, &MalformedResponseError{
			Reason: "negative amount " + rd.Amount.String(),
			Raw:    raw,
		}
	}

	txType := ledger.Type(strings.ToUpper(strings.TrimSpace(*rd.Type)))
	if !txType.Valid() {
		return ledger.Draft{}, &MalformedResponseError{
			Reason: fmt.Sprintf("unknown transaction type %q", *rd.Type),
			Raw:    raw,
		}
	}

	date := strings.TrimSpace(*rd.Date)
	if !ledger.ValidDate(date) {
		return ledger.Draft{}, &MalformedResponseError{
			Reason: fmt.Sprintf("invalid date %q", *rd.Date),
			Raw:    raw,
		}
	}

	return ledger.Draft{
		Amount:      *rd.Amount,
		Category:    ledger.NormalizeCategory(strings.TrimSpace(*rd.Category)),
		Description: strings.TrimSpace(*rd.Description),
		Date:        date,
		Type:        txType,
	}, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the strict-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only the outermost object when extra text surrounds it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
