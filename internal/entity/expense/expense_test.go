package expense

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"max.ks1230/expense-tracker/internal/entity/money"
)

func rec(y int, m time.Month, d int, catID int64) Record {
	return Record{
		CategoryID: catID,
		Date:       time.Date(y, m, d, 13, 45, 0, 0, time.UTC),
		Amount:     money.FromCents(100),
	}
}

func Test_Filter_Empty_MatchesEverything(t *testing.T) {
	assert.True(t, Filter{}.Matches(rec(2026, time.June, 15, 1)))
	assert.True(t, Filter{}.IsZero())
}

func Test_Filter_MonthWithoutYear_MatchesAnyYear(t *testing.T) {
	month := 6
	f := Filter{Month: &month}

	assert.True(t, f.Matches(rec(2024, time.June, 1, 1)))
	assert.True(t, f.Matches(rec(2026, time.June, 30, 1)))
	assert.False(t, f.Matches(rec(2026, time.July, 1, 1)))
}

func Test_Filter_RangeBoundsAreInclusive(t *testing.T) {
	from := time.Date(2026, time.June, 1, 23, 59, 0, 0, time.UTC)
	to := time.Date(2026, time.June, 30, 0, 0, 1, 0, time.UTC)
	f := Filter{From: &from, To: &to}

	assert.True(t, f.Matches(rec(2026, time.June, 1, 1)))
	assert.True(t, f.Matches(rec(2026, time.June, 30, 1)))
	assert.False(t, f.Matches(rec(2026, time.May, 31, 1)))
	assert.False(t, f.Matches(rec(2026, time.July, 1, 1)))
}

func Test_Filter_AllFieldsMustAgree(t *testing.T) {
	year, month, catID := 2026, 6, int64(2)
	f := Filter{Year: &year, Month: &month, CategoryID: &catID}

	assert.True(t, f.Matches(rec(2026, time.June, 15, 2)))
	assert.False(t, f.Matches(rec(2026, time.June, 15, 3)))
	assert.False(t, f.Matches(rec(2025, time.June, 15, 2)))
}

func Test_Filter_Key_IsStable(t *testing.T) {
	assert.Equal(t, "all", Filter{}.Key())

	year, month := 2026, 6
	from := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	f := Filter{Year: &year, Month: &month, From: &from}
	assert.Equal(t, "y=2026,m=6,from=2026-06-01", f.Key())
}
