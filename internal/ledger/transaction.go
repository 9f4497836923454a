package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type tags a transaction as money out or money in.
type Type string

const (
	TypeExpense Type = "EXPENSE"
	TypeIncome  Type = "INCOME"
)

// Valid reports whether t is one of the two closed type tags.
func (t Type) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// Category is one of the closed set of semantic transaction categories.
// The labels are the exact strings the model is constrained to return.
type Category string

const (
	CategoryFood          Category = "餐饮"
	CategoryTransport     Category = "交通"
	CategoryShopping      Category = "购物"
	CategoryEntertainment Category = "娱乐"
	CategoryHousing       Category = "居住"
	CategoryUtilities     Category = "生活缴费"
	CategoryHealth        Category = "医疗"
	CategoryEducation     Category = "教育"
	CategoryIncome        Category = "收入"
	CategoryOther         Category = "其他"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryEntertainment,
	CategoryHousing,
	CategoryUtilities,
	CategoryHealth,
	CategoryEducation,
	CategoryIncome,
	CategoryOther,
}

// CategoryColors maps each category to the hex color used by chart rendering.
var CategoryColors = map[Category]string{
	CategoryFood:          "#f59e0b",
	CategoryTransport:     "#3b82f6",
	CategoryShopping:      "#ec4899",
	CategoryEntertainment: "#8b5cf6",
	CategoryHousing:       "#10b981",
	CategoryUtilities:     "#06b6d4",
	CategoryHealth:        "#ef4444",
	CategoryEducation:     "#6366f1",
	CategoryIncome:        "#22c55e",
	CategoryOther:         "#64748b",
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	_, ok := CategoryColors[c]
	return ok
}

// NormalizeCategory maps an arbitrary model-supplied label onto the closed
// set, downgrading anything unknown to CategoryOther instead of letting an
// invalid tag reach the permanent store.
func NormalizeCategory(s string) Category {
	if c := Category(s); c.Valid() {
		return c
	}
	return CategoryOther
}

// DateLayout is the calendar-date format used by Transaction.Date.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is a well-formed ISO calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Transaction is one immutable, persisted ledger entry.
type Transaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"` // YYYY-MM-DD, when it happened
	Type        Type            `json:"type"`
	CreatedAt   int64           `json:"createdAt"` // epoch millis, confirmation time
}

// Draft is an unconfirmed candidate transaction: the model's guess, possibly
// edited by the user. It has no ID or CreatedAt until confirmation mints them.
type Draft struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Type        Type            `json:"type"`
}
