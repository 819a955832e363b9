package categories

import (
	"context"
	"strings"
	"testing"

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

func newTestService() (*Service, *storage.InMemStorage) {
	db := storage.NewInMemStorage()
	db.SeedGlobalCategories("Food", "Rent")
	return NewService(db), db
}

func Test_List_ShowsGlobalsAndOwnOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, "Hobby")
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, "Pets")
	require.NoError(t, err)

	cats, err := svc.List(ctx, alice)
	require.NoError(t, err)

	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Food", "Hobby", "Rent"}, names)
}

func Test_Create_TrimsAndKeepsCasing(t *testing.T) {
	svc, _ := newTestService()

	rec, err := svc.Create(context.Background(), alice, "  Coffee Shops  ")

	require.NoError(t, err)
	assert.Equal(t, "Coffee Shops", rec.Name)
	assert.True(t, rec.Owner.BelongsTo(alice))
}

func Test_Create_RejectsCaseInsensitiveDuplicate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, "Hobby")
	require.NoError(t, err)

	_, err = svc.Create(ctx, alice, " hObBy ")

	var dup *customerr.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "hObBy", dup.Name)
}

func Test_Create_RejectsNameOfGlobalCategory(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), alice, "food")

	var dup *customerr.DuplicateNameError
	assert.ErrorAs(t, err, &dup)
}

func Test_Create_SameNameDifferentUsersIsFine(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, "Hobby")
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, "Hobby")
	assert.NoError(t, err)
}

func Test_Create_RejectsEmptyAndOversizedNames(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, "   ")
	var required *customerr.RequiredFieldError
	assert.ErrorAs(t, err, &required)

	_, err = svc.Create(ctx, alice, strings.Repeat("x", 101))
	var invalid *customerr.ValidationError
	assert.ErrorAs(t, err, &invalid)
}

func Test_Rename_AllowsChangingOnlyTheCasing(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, alice, "hobby")
	require.NoError(t, err)

	renamed, err := svc.Rename(ctx, alice, rec.ID, "HOBBY")

	require.NoError(t, err)
	assert.Equal(t, "HOBBY", renamed.Name)
}

func Test_Rename_GlobalCategory_LooksMissing(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Rename(context.Background(), alice, 1, "Grub")

	var notFound *customerr.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "category", notFound.Entity)
}

func Test_Rename_OtherUsersCategory_LooksMissing(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, bob, "Pets")
	require.NoError(t, err)

	_, err = svc.Rename(ctx, alice, rec.ID, "Cats")

	var notFound *customerr.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func Test_Delete_RefusesWhileExpensesReferenceIt(t *testing.T) {
	svc, db := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, alice, "Hobby")
	require.NoError(t, err)

	expID, err := db.InsertExpense(ctx, expense.Record{
		UserID:     alice,
		CategoryID: rec.ID,
		Amount:     money.FromCents(500),
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, alice, rec.ID)
	var guarded *customerr.HasDependentsError
	require.ErrorAs(t, err, &guarded)
	assert.Equal(t, int64(1), guarded.Dependents)

	ok, err := db.DeleteExpense(ctx, expID, alice)
	require.NoError(t, err)
	require.True(t, ok)

	assert.NoError(t, svc.Delete(ctx, alice, rec.ID))
}

func Test_Delete_UnknownID_LooksMissing(t *testing.T) {
	svc, _ := newTestService()

	err := svc.Delete(context.Background(), alice, 404)

	var notFound *customerr.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// conflictedStorage reports every write as matching no rows while the
// record stays put, the way a lost race with a concurrent writer does.
type conflictedStorage struct {
	categoryStorage
}

func (s conflictedStorage) UpdateCategory(context.Context, category.Record) (bool, error) {
	return false, nil
}

func (s conflictedStorage) DeleteCategory(context.Context, int64, int64) (bool, error) {
	return false, nil
}

// vanishingStorage reports no rows matched and removes the record, as
// when a concurrent delete wins just before the write lands.
type vanishingStorage struct {
	categoryStorage
	db *storage.InMemStorage
}

func (s vanishingStorage) UpdateCategory(ctx context.Context, rec category.Record) (bool, error) {
	if ownerID, owned := rec.Owner.UserID(); owned {
		_, _ = s.db.DeleteCategory(ctx, rec.ID, ownerID)
	}
	return false, nil
}

func Test_Rename_LostRace_ReportsConflict(t *testing.T) {
	_, db := newTestService()
	ctx := context.Background()

	rec, err := NewService(db).Create(ctx, alice, "Hobby")
	require.NoError(t, err)

	svc := NewService(conflictedStorage{categoryStorage: db})
	_, err = svc.Rename(ctx, alice, rec.ID, "Crafts")

	var conflict *customerr.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "category", conflict.Entity)
	assert.Equal(t, rec.ID, conflict.ID)
}

func Test_Delete_LostRace_ReportsConflict(t *testing.T) {
	_, db := newTestService()
	ctx := context.Background()

	rec, err := NewService(db).Create(ctx, alice, "Hobby")
	require.NoError(t, err)

	svc := NewService(conflictedStorage{categoryStorage: db})
	err = svc.Delete(ctx, alice, rec.ID)

	var conflict *customerr.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func Test_Rename_RecordVanishedMidWrite_LooksMissing(t *testing.T) {
	_, db := newTestService()
	ctx := context.Background()

	rec, err := NewService(db).Create(ctx, alice, "Hobby")
	require.NoError(t, err)

	svc := NewService(vanishingStorage{categoryStorage: db, db: db})
	_, err = svc.Rename(ctx, alice, rec.ID, "Crafts")

	var notFound *customerr.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, rec.ID, notFound.ID)
}
