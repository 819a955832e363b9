package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/entity/money"
	"max.ks1230/expense-tracker/internal/model/storage"
)

const testUserID = int64(123)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedStorage(t *testing.T) *storage.InMemStorage {
	t.Helper()
	db := storage.NewInMemStorage()
	db.SeedGlobalCategories("Food", "Rent")

	ctx := context.Background()
	records := []expense.Record{
		{UserID: testUserID, CategoryID: 1, Date: date(2026, time.May, 10), Amount: money.FromCents(1000)},
		{UserID: testUserID, CategoryID: 1, Date: date(2026, time.June, 1), Amount: money.FromCents(500)},
		{UserID: testUserID, CategoryID: 2, Date: date(2026, time.June, 1), Amount: money.FromCents(3500)},
		{UserID: testUserID, CategoryID: 1, Date: date(2024, time.December, 31), Amount: money.FromCents(700)},
		{UserID: 999, CategoryID: 2, Date: date(2026, time.June, 1), Amount: money.FromCents(99999)},
	}
	for _, rec := range records {
		_, err := db.InsertExpense(ctx, rec)
		require.NoError(t, err)
	}
	return db
}

func Test_Generate_EmptyStorage_ShouldReportNothing(t *testing.T) {
	g := NewGenerator(storage.NewInMemStorage())

	report, err := g.Generate(context.Background(), testUserID, expense.Filter{})

	require.NoError(t, err)
	assert.Empty(t, report.Items)
	assert.Equal(t, int64(0), report.Total.Cents())
	assert.Equal(t, "No expenses match", Format(report))
}

func Test_Generate_ShouldAggregatePerCategory(t *testing.T) {
	g := NewGenerator(seedStorage(t))

	year := 2026
	report, err := g.Generate(context.Background(), testUserID, expense.Filter{Year: &year})

	require.NoError(t, err)
	assert.Len(t, report.Items, 3)
	assert.Equal(t, int64(5000), report.Total.Cents())

	require.Len(t, report.Categories, 2)
	assert.Equal(t, "Rent", report.Categories[0].Name)
	assert.Equal(t, int64(3500), report.Categories[0].Total.Cents())
	assert.InDelta(t, 70.0, report.Categories[0].Percentage, 0.01)
	assert.Equal(t, "Food", report.Categories[1].Name)
	assert.InDelta(t, 30.0, report.Categories[1].Percentage, 0.01)
}

func Test_Generate_YearsIgnoreTheFilter(t *testing.T) {
	g := NewGenerator(seedStorage(t))

	year := 2026
	report, err := g.Generate(context.Background(), testUserID, expense.Filter{Year: &year})

	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2026}, report.Years)
}

func Test_Generate_ItemsComeNewestFirst(t *testing.T) {
	g := NewGenerator(seedStorage(t))

	report, err := g.Generate(context.Background(), testUserID, expense.Filter{})

	require.NoError(t, err)
	require.Len(t, report.Items, 4)
	for i := 1; i < len(report.Items); i++ {
		assert.False(t, report.Items[i].Date.After(report.Items[i-1].Date))
	}
}

func Test_Generate_FiltersCompose(t *testing.T) {
	g := NewGenerator(seedStorage(t))

	year, month, catID := 2026, 6, int64(1)
	report, err := g.Generate(context.Background(), testUserID, expense.Filter{
		Year:       &year,
		Month:      &month,
		CategoryID: &catID,
	})

	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, int64(500), report.Total.Cents())
	assert.Equal(t, "Food", report.Items[0].CategoryName)
}

func Test_Generate_OtherUsersExpensesStayInvisible(t *testing.T) {
	g := NewGenerator(seedStorage(t))

	report, err := g.Generate(context.Background(), int64(999), expense.Filter{})

	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, int64(99999), report.Total.Cents())
}

func Test_Format_ShouldRenderShares(t *testing.T) {
	g := NewGenerator(seedStorage(t))

	year := 2026
	report, err := g.Generate(context.Background(), testUserID, expense.Filter{Year: &year})
	require.NoError(t, err)

	assert.Equal(t, "Rent: 35.00 (70.0%)\nFood: 15.00 (30.0%)\n\nTotal: 50.00", Format(report))
}
