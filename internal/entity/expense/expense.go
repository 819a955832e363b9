package expense

import (
	"fmt"
	"strings"
	"time"

	"max.ks1230/expense-tracker/internal/entity/money"
)

const MaxDescriptionLen = 500

type Record struct {
	ID          int64
	UserID      int64
	CategoryID  int64
	Date        time.Time
	Amount      money.Amount
	Description string
}

// Day strips the time-of-day component. Filtering and range bounds
// compare calendar dates only.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Filter narrows a user's expense listing. Every field is optional and
// all supplied fields must match at once. Month works without Year and
// then matches that month in any year.
type Filter struct {
	Year       *int       `json:"year,omitempty"`
	Month      *int       `json:"month,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	CategoryID *int64     `json:"category_id,omitempty"`
}

func (f Filter) Matches(rec Record) bool {
	day := Day(rec.Date)
	if f.Year != nil && day.Year() != *f.Year {
		return false
	}
	if f.Month != nil && int(day.Month()) != *f.Month {
		return false
	}
	if f.From != nil && day.Before(Day(*f.From)) {
		return false
	}
	if f.To != nil && day.After(Day(*f.To)) {
		return false
	}
	if f.CategoryID != nil && rec.CategoryID != *f.CategoryID {
		return false
	}
	return true
}

func (f Filter) IsZero() bool {
	return f.Year == nil && f.Month == nil && f.From == nil && f.To == nil && f.CategoryID == nil
}

// Key renders the filter in a stable form usable as a cache key part.
func (f Filter) Key() string {
	if f.IsZero() {
		return "all"
	}
	parts := make([]string, 0, 5)
	if f.Year != nil {
		parts = append(parts, fmt.Sprintf("y=%d", *f.Year))
	}
	if f.Month != nil {
		parts = append(parts, fmt.Sprintf("m=%d", *f.Month))
	}
	if f.From != nil {
		parts = append(parts, "from="+Day(*f.From).Format("2006-01-02"))
	}
	if f.To != nil {
		parts = append(parts, "to="+Day(*f.To).Format("2006-01-02"))
	}
	if f.CategoryID != nil {
		parts = append(parts, fmt.Sprintf("cat=%d", *f.CategoryID))
	}
	return strings.Join(parts, ",")
}
