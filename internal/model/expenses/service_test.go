package expenses

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/entity/money"
	"max.ks1230/expense-tracker/internal/model/customerr"
	"max.ks1230/expense-tracker/internal/model/storage"
)

const (
	alice = int64(1)
	bob   = int64(2)
)

var someDay = time.Date(2026, time.June, 15, 14, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *storage.InMemStorage) {
	t.Helper()
	db := storage.NewInMemStorage()
	db.SeedGlobalCategories("Food")
	return NewService(db), db
}

func validInput() Input {
	return Input{
		CategoryID:  1,
		Date:        someDay,
		Amount:      money.FromCents(1250),
		Description: "lunch",
	}
}

func Test_Add_RecordsWithDateStrippedToDay(t *testing.T) {
	svc, _ := newTestService(t)

	rec, err := svc.Add(context.Background(), alice, validInput())

	require.NoError(t, err)
	assert.Equal(t, alice, rec.UserID)
	assert.Equal(t, time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, int64(1250), rec.Amount.Cents())
}

func Test_Add_RejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(t)

	in := validInput()
	in.Amount = money.Zero
	_, err := svc.Add(context.Background(), alice, in)

	var invalid *customerr.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "amount", invalid.Field)
}

func Test_Add_RejectsOversizedDescription(t *testing.T) {
	svc, _ := newTestService(t)

	in := validInput()
	in.Description = strings.Repeat("x", 501)
	_, err := svc.Add(context.Background(), alice, in)

	var invalid *customerr.ValidationError
	assert.ErrorAs(t, err, &invalid)
}

func Test_Add_RejectsZeroDate(t *testing.T) {
	svc, _ := newTestService(t)

	in := validInput()
	in.Date = time.Time{}
	_, err := svc.Add(context.Background(), alice, in)

	var required *customerr.RequiredFieldError
	require.ErrorAs(t, err, &required)
	assert.Equal(t, "date", required.Field)
}

func Test_Add_AgainstInvisibleCategory_LooksMissing(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	bobsCatID, err := db.InsertCategory(ctx, category.Record{
		Name:  "Pets",
		Owner: category.OwnedBy(bob),
	})
	require.NoError(t, err)

	in := validInput()
	in.CategoryID = bobsCatID
	_, err = svc.Add(ctx, alice, in)

	var notFound *customerr.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "category", notFound.Entity)
}

func Test_Edit_RewritesMutableFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Add(ctx, alice, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Amount = money.FromCents(999)
	in.Description = "dinner"
	updated, err := svc.Edit(ctx, alice, rec.ID, in)

	require.NoError(t, err)
	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, int64(999), updated.Amount.Cents())
	assert.Equal(t, "dinner", updated.Description)
}

func Test_Edit_SomeoneElsesExpense_LooksMissing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Add(ctx, bob, validInput())
	require.NoError(t, err)

	_, err = svc.Edit(ctx, alice, rec.ID, validInput())

	var notFound *customerr.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "expense", notFound.Entity)
}

func Test_Remove_ThenRemoveAgain_LooksMissing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Add(ctx, alice, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, alice, rec.ID))

	err = svc.Remove(ctx, alice, rec.ID)
	var notFound *customerr.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// conflictedStorage reports every write as matching no rows while the
// record stays put, the way a lost race with a concurrent writer does.
type conflictedStorage struct {
	expenseStorage
}

func (s conflictedStorage) UpdateExpense(context.Context, expense.Record) (bool, error) {
	return false, nil
}

func (s conflictedStorage) DeleteExpense(context.Context, int64, int64) (bool, error) {
	return false, nil
}

// vanishingStorage reports no rows matched and removes the record, as
// when a concurrent delete wins just before the write lands.
type vanishingStorage struct {
	expenseStorage
	db *storage.InMemStorage
}

func (s vanishingStorage) UpdateExpense(ctx context.Context, rec expense.Record) (bool, error) {
	_, _ = s.db.DeleteExpense(ctx, rec.ID, rec.UserID)
	return false, nil
}

func Test_Edit_LostRace_ReportsConflict(t *testing.T) {
	_, db := newTestService(t)
	ctx := context.Background()

	rec, err := NewService(db).Add(ctx, alice, validInput())
	require.NoError(t, err)

	svc := NewService(conflictedStorage{expenseStorage: db})
	_, err = svc.Edit(ctx, alice, rec.ID, validInput())

	var conflict *customerr.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "expense", conflict.Entity)
	assert.Equal(t, rec.ID, conflict.ID)
}

func Test_Remove_LostRace_ReportsConflict(t *testing.T) {
	_, db := newTestService(t)
	ctx := context.Background()

	rec, err := NewService(db).Add(ctx, alice, validInput())
	require.NoError(t, err)

	svc := NewService(conflictedStorage{expenseStorage: db})
	err = svc.Remove(ctx, alice, rec.ID)

	var conflict *customerr.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func Test_Edit_RecordVanishedMidWrite_LooksMissing(t *testing.T) {
	_, db := newTestService(t)
	ctx := context.Background()

	rec, err := NewService(db).Add(ctx, alice, validInput())
	require.NoError(t, err)

	svc := NewService(vanishingStorage{expenseStorage: db, db: db})
	_, err = svc.Edit(ctx, alice, rec.ID, validInput())

	var notFound *customerr.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, rec.ID, notFound.ID)
}
