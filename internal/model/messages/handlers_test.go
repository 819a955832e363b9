package messages

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"max.ks1230/expense-tracker/internal/model/categories"
	"max.ks1230/expense-tracker/internal/model/expenses"
	"max.ks1230/expense-tracker/internal/model/reports"
	"max.ks1230/expense-tracker/internal/model/storage"
)

const testUserID = int64(123)

type requesterStub struct {
	requests []reports.Request
}

func (r *requesterStub) RequestReport(req reports.Request) error {
	r.requests = append(r.requests, req)
	return nil
}

type cacheStub struct {
	reports     map[string]string
	invalidated []string
}

func newCacheStub() *cacheStub {
	return &cacheStub{reports: make(map[string]string)}
}

func (c *cacheStub) GetReport(_ int64, filterKey string) (string, error) {
	report, ok := c.reports[filterKey]
	if !ok {
		return "", errors.New("cache miss")
	}
	return report, nil
}

func (c *cacheStub) InvalidateReports(_ int64, filterKeys []string) error {
	c.invalidated = append(c.invalidated, filterKeys...)
	return nil
}

func newTestHandler() (*HandlerService, *storage.InMemStorage, *requesterStub, *cacheStub) {
	db := storage.NewInMemStorage()
	db.SeedGlobalCategories("Food", "Rent", "Transport")

	requester := &requesterStub{}
	cache := newCacheStub()
	handler := NewHandler(
		categories.NewService(db),
		expenses.NewService(db),
		reports.NewGenerator(db),
		requester,
		cache,
	)
	return handler, db, requester, cache
}

func Test_OnCategoriesCommand_ShouldListSharedSeedSet(t *testing.T) {
	handler, _, _, _ := newTestHandler()

	resp, err := handler.HandleMessage(context.Background(), "/categories", testUserID)

	require.NoError(t, err)
	assert.Equal(t, "#1 Food (shared)\n#2 Rent (shared)\n#3 Transport (shared)", resp)
}

func Test_OnNewCategoryCommand_ShouldCreateAndReportID(t *testing.T) {
	handler, _, _, cache := newTestHandler()

	resp, err := handler.HandleMessage(context.Background(), "/newcategory Coffee", testUserID)

	require.NoError(t, err)
	assert.Equal(t, `Category #4 "Coffee" created`, resp)
	assert.NotEmpty(t, cache.invalidated)
}

func Test_OnNewCategoryCommand_DuplicateOfSharedName_ShouldRefuse(t *testing.T) {
	handler, _, _, _ := newTestHandler()

	resp, err := handler.HandleMessage(context.Background(), "/newcategory  food ", testUserID)

	require.NoError(t, err)
	assert.Equal(t, `You already have a category named "food"`, resp)
}

func Test_OnNewCategoryCommand_EmptyName_ShouldRefuse(t *testing.T) {
	handler, _, _, _ := newTestHandler()

	resp, err := handler.HandleMessage(context.Background(), "/newcategory   ", testUserID)

	require.NoError(t, err)
	assert.Equal(t, "The name cannot be empty", resp)
}

func Test_OnRenameCategoryCommand_OtherUsersCategory_ShouldLookMissing(t *testing.T) {
	handler, _, _, _ := newTestHandler()

	_, err := handler.HandleMessage(context.Background(), "/newcategory Pets", int64(999))
	require.NoError(t, err)

	resp, err := handler.HandleMessage(context.Background(), "/renamecategory 4 Cats", testUserID)

	require.NoError(t, err)
	assert.Equal(t, "Can't find category #4", resp)
}

func Test_OnExpenseCommand_ShouldRecordAndShowUp(t *testing.T) {
	handler, _, _, _ := newTestHandler()
	ctx := context.Background()

	resp, err := handler.HandleMessage(ctx, "/expense 1 12.50 15.06.2026 coffee beans", testUserID)
	require.NoError(t, err)
	assert.Equal(t, "Expense #4 saved: 12.50 on 15.06.2026", resp)

	resp, err = handler.HandleMessage(ctx, "/expenses", testUserID)
	require.NoError(t, err)
	assert.Equal(t,
		"#4 15.06.2026 Food 12.50 - coffee beans\n\nTotal: 12.50\nYears on record: 2026",
		resp)
}

func Test_OnExpenseCommand_BadAmount_ShouldExplain(t *testing.T) {
	handler, _, _, _ := newTestHandler()

	resp, err := handler.HandleMessage(context.Background(), "/expense 1 twelve", testUserID)

	require.NoError(t, err)
	assert.Contains(t, resp, "your expense amount is incorrect")
}

func Test_OnDelCategoryCommand_WithExpenses_ShouldRefuseUntilEmpty(t *testing.T) {
	handler, _, _, _ := newTestHandler()
	ctx := context.Background()

	_, err := handler.HandleMessage(ctx, "/newcategory Hobby", testUserID)
	require.NoError(t, err)
	_, err = handler.HandleMessage(ctx, "/expense 4 5.00", testUserID)
	require.NoError(t, err)

	resp, err := handler.HandleMessage(ctx, "/delcategory 4", testUserID)
	require.NoError(t, err)
	assert.Equal(t, "This category still has expenses. Delete them first", resp)

	_, err = handler.HandleMessage(ctx, "/delexpense 5", testUserID)
	require.NoError(t, err)

	resp, err = handler.HandleMessage(ctx, "/delcategory 4", testUserID)
	require.NoError(t, err)
	assert.Equal(t, okMessage, resp)
}

func Test_OnReportCommand_CacheHit_ShouldAnswerImmediately(t *testing.T) {
	handler, _, requester, cache := newTestHandler()
	cache.reports["all"] = "Food: 12.50 (100.0%)\n\nTotal: 12.50"

	resp, err := handler.HandleMessage(context.Background(), "/report", testUserID)

	require.NoError(t, err)
	assert.Equal(t, "Food: 12.50 (100.0%)\n\nTotal: 12.50", resp)
	assert.Empty(t, requester.requests)
}

func Test_OnReportCommand_CacheMiss_ShouldQueueRequest(t *testing.T) {
	handler, _, requester, _ := newTestHandler()

	resp, err := handler.HandleMessage(context.Background(), "/report year=2026 month=6", testUserID)

	require.NoError(t, err)
	assert.Equal(t, reportPendingMessage, resp)
	require.Len(t, requester.requests, 1)
	assert.Equal(t, testUserID, requester.requests[0].UserID)
	require.NotNil(t, requester.requests[0].Filter.Year)
	assert.Equal(t, 2026, *requester.requests[0].Filter.Year)
}

func Test_OnReportCommand_BadFilter_ShouldExplain(t *testing.T) {
	handler, _, requester, _ := newTestHandler()

	resp, err := handler.HandleMessage(context.Background(), "/report month=13", testUserID)

	require.NoError(t, err)
	assert.Equal(t, `bad month "13"`, resp)
	assert.Empty(t, requester.requests)
}

func Test_OnUnknownCommand_ShouldShrug(t *testing.T) {
	handler, _, _, _ := newTestHandler()

	resp, err := handler.HandleMessage(context.Background(), "/frobnicate", testUserID)

	require.NoError(t, err)
	assert.Equal(t, dontUnderstandMessage, resp)
}
