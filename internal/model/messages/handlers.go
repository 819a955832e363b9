package messages

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/entity/money"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/customerr"
	"max.ks1230/expense-tracker/internal/model/expenses"
	"max.ks1230/expense-tracker/internal/model/reports"
)

const (
	dontUnderstandMessage = "I don't understand you :("
	helloMessage          = "Hello! I am ExpenseTracker bot 🤖 Try /help"
	okMessage             = "Gotcha!"
	reportPendingMessage  = "Crunching the numbers, your report is on the way 📊"
	noExpensesMessage     = "You have no expenses yet"
	noCategoriesMessage   = "You have no categories yet"

	incorrectUsageMessage = "That is an incorrect command usage. See /help"

	helpMessage = `/categories - list categories you can spend against
/newcategory <name> - add your own category
/renamecategory <id> <name> - rename your category
/delcategory <id> - delete your category (must have no expenses)
/expense <category id> <amount> [dd.mm.yyyy] [description] - record an expense
/editexpense <id> <category id> <amount> [dd.mm.yyyy] [description] - rewrite an expense
/delexpense <id> - delete an expense
/expenses [filters] - list expenses
/report [filters] - spending report by category
Filters: week | month | year | year=2024 month=5 from=01.01.2024 to=31.12.2024 category=3`
)

const (
	startCommand          = "/start"
	helpCommand           = "/help"
	categoriesCommand     = "/categories"
	newCategoryCommand    = "/newcategory"
	renameCategoryCommand = "/renamecategory"
	delCategoryCommand    = "/delcategory"
	expenseCommand        = "/expense"
	editExpenseCommand    = "/editexpense"
	delExpenseCommand     = "/delexpense"
	expensesCommand       = "/expenses"
	reportCommand         = "/report"
)

type categoryModel interface {
	List(ctx context.Context, userID int64) ([]category.Record, error)
	Create(ctx context.Context, userID int64, rawName string) (category.Record, error)
	Rename(ctx context.Context, userID, id int64, rawName string) (category.Record, error)
	Delete(ctx context.Context, userID, id int64) error
}

type expenseModel interface {
	Add(ctx context.Context, userID int64, in expenses.Input) (expense.Record, error)
	Edit(ctx context.Context, userID, id int64, in expenses.Input) (expense.Record, error)
	Remove(ctx context.Context, userID, id int64) error
}

type reportModel interface {
	Generate(ctx context.Context, userID int64, f expense.Filter) (reports.Report, error)
}

type reportRequester interface {
	RequestReport(req reports.Request) error
}

type reportCache interface {
	GetReport(userID int64, filterKey string) (string, error)
	InvalidateReports(userID int64, filterKeys []string) error
}

type handler func(ctx context.Context, arg string, userID int64) (string, error)

type handlerMap map[string]handler

// HandlerService resolves bot commands into model calls. Expected
// failures (validation, duplicates, missing entities) come back as
// user-facing text; everything else propagates as an error.
type HandlerService struct {
	handlersMap handlerMap
	categories  categoryModel
	expenses    expenseModel
	reports     reportModel
	requester   reportRequester
	cache       reportCache
}

func NewHandler(
	categories categoryModel,
	expenses expenseModel,
	reports reportModel,
	requester reportRequester,
	cache reportCache,
) *HandlerService {
	res := &HandlerService{
		handlersMap: nil,
		categories:  categories,
		expenses:    expenses,
		reports:     reports,
		requester:   requester,
		cache:       cache,
	}
	res.handlersMap = newMap(res)
	return res
}

func (s *HandlerService) HandleMessage(ctx context.Context, text string, userID int64) (string, error) {
	cmd, arg := parseCommand(text)

	handler, ok := s.handlersMap[cmd]
	if !ok {
		return dontUnderstandMessage, nil
	}

	resp, err := handler(ctx, arg, userID)
	if err != nil {
		if msg, ok := userMessage(err); ok {
			return msg, nil
		}
		return "", errors.Wrap(err, "handle message")
	}
	return resp, nil
}

func newMap(s *HandlerService) handlerMap {
	m := make(handlerMap)
	m[startCommand] = s.handleStart
	m[helpCommand] = s.handleHelp
	m[categoriesCommand] = s.handleCategories
	m[newCategoryCommand] = s.handleNewCategory
	m[renameCategoryCommand] = s.handleRenameCategory
	m[delCategoryCommand] = s.handleDelCategory
	m[expenseCommand] = s.handleExpense
	m[editExpenseCommand] = s.handleEditExpense
	m[delExpenseCommand] = s.handleDelExpense
	m[expensesCommand] = s.handleExpenses
	m[reportCommand] = s.handleReport

	m[""] = s.handleNoCommand

	return m
}

// userMessage maps the typed model failures to the text the user sees.
// The mapping keeps NotFound indistinguishable from "never existed".
func userMessage(err error) (string, bool) {
	var required *customerr.RequiredFieldError
	var invalid *customerr.ValidationError
	var dup *customerr.DuplicateNameError
	var notFound *customerr.NotFoundError
	var dependents *customerr.HasDependentsError
	var conflict *customerr.ConflictError

	switch {
	case stderrors.As(err, &required):
		return fmt.Sprintf("The %s cannot be empty", required.Field), true
	case stderrors.As(err, &invalid):
		return fmt.Sprintf("The %s is invalid: %s", invalid.Field, invalid.Msg), true
	case stderrors.As(err, &dup):
		return fmt.Sprintf("You already have a category named %q", dup.Name), true
	case stderrors.As(err, &notFound):
		return fmt.Sprintf("Can't find %s #%d", notFound.Entity, notFound.ID), true
	case stderrors.As(err, &dependents):
		return "This category still has expenses. Delete them first", true
	case stderrors.As(err, &conflict):
		return "Someone else changed that just now. Please retry", true
	}
	return "", false
}

func (s *HandlerService) handleStart(_ context.Context, _ string, _ int64) (string, error) {
	return helloMessage, nil
}

func (s *HandlerService) handleHelp(_ context.Context, _ string, _ int64) (string, error) {
	return helpMessage, nil
}

func (s *HandlerService) handleNoCommand(_ context.Context, _ string, _ int64) (string, error) {
	return dontUnderstandMessage, nil
}

func (s *HandlerService) handleCategories(ctx context.Context, _ string, userID int64) (string, error) {
	cats, err := s.categories.List(ctx, userID)
	if err != nil {
		return "", err
	}
	return formatCategories(cats), nil
}

func (s *HandlerService) handleNewCategory(ctx context.Context, arg string, userID int64) (string, error) {
	rec, err := s.categories.Create(ctx, userID, arg)
	if err != nil {
		return "", err
	}
	s.dropCachedReports(userID)
	return fmt.Sprintf("Category #%d %q created", rec.ID, rec.Name), nil
}

func (s *HandlerService) handleRenameCategory(ctx context.Context, arg string, userID int64) (string, error) {
	idArg, name, _ := strings.Cut(arg, " ")
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return incorrectUsageMessage, nil
	}

	rec, err := s.categories.Rename(ctx, userID, id, name)
	if err != nil {
		return "", err
	}
	s.dropCachedReports(userID)
	return fmt.Sprintf("Category #%d is now %q", rec.ID, rec.Name), nil
}

func (s *HandlerService) handleDelCategory(ctx context.Context, arg string, userID int64) (string, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return incorrectUsageMessage, nil
	}

	if err = s.categories.Delete(ctx, userID, id); err != nil {
		return "", err
	}
	s.dropCachedReports(userID)
	return okMessage, nil
}

func (s *HandlerService) handleExpense(ctx context.Context, arg string, userID int64) (string, error) {
	in, ok, err := parseExpenseInput(strings.Fields(arg))
	if err != nil || !ok {
		if err != nil {
			return err.Error(), nil
		}
		return incorrectUsageMessage, nil
	}

	rec, err := s.expenses.Add(ctx, userID, in)
	if err != nil {
		return "", err
	}
	s.dropCachedReports(userID)
	return fmt.Sprintf("Expense #%d saved: %s on %s", rec.ID, rec.Amount, rec.Date.Format(dateLayout)), nil
}

func (s *HandlerService) handleEditExpense(ctx context.Context, arg string, userID int64) (string, error) {
	args := strings.Fields(arg)
	if len(args) < 1 {
		return incorrectUsageMessage, nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return incorrectUsageMessage, nil
	}

	in, ok, err := parseExpenseInput(args[1:])
	if err != nil || !ok {
		if err != nil {
			return err.Error(), nil
		}
		return incorrectUsageMessage, nil
	}

	rec, err := s.expenses.Edit(ctx, userID, id, in)
	if err != nil {
		return "", err
	}
	s.dropCachedReports(userID)
	return fmt.Sprintf("Expense #%d updated: %s on %s", rec.ID, rec.Amount, rec.Date.Format(dateLayout)), nil
}

func (s *HandlerService) handleDelExpense(ctx context.Context, arg string, userID int64) (string, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return incorrectUsageMessage, nil
	}

	if err = s.expenses.Remove(ctx, userID, id); err != nil {
		return "", err
	}
	s.dropCachedReports(userID)
	return okMessage, nil
}

func (s *HandlerService) handleExpenses(ctx context.Context, arg string, userID int64) (string, error) {
	f, err := parseFilter(arg)
	if err != nil {
		return err.Error(), nil
	}

	report, err := s.reports.Generate(ctx, userID, f)
	if err != nil {
		return "", err
	}
	return formatExpenses(report), nil
}

func (s *HandlerService) handleReport(ctx context.Context, arg string, userID int64) (string, error) {
	f, err := parseFilter(arg)
	if err != nil {
		return err.Error(), nil
	}

	if cached, cacheErr := s.cache.GetReport(userID, f.Key()); cacheErr == nil {
		return cached, nil
	}

	if err = s.requester.RequestReport(reports.Request{UserID: userID, Filter: f}); err != nil {
		return "", errors.Wrap(err, "handle report")
	}
	return reportPendingMessage, nil
}

// parseExpenseInput reads "<category id> <amount> [dd.mm.yyyy]
// [description...]". ok is false when the shape is wrong; err carries
// a user-facing message for a malformed amount or date.
func parseExpenseInput(args []string) (expenses.Input, bool, error) {
	if len(args) < 2 {
		return expenses.Input{}, false, nil
	}

	categoryID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return expenses.Input{}, false, nil
	}

	amount, err := money.Parse(args[1])
	if err != nil {
		return expenses.Input{}, false, fmt.Errorf("your expense amount is incorrect: %v", err)
	}

	date := time.Now()
	rest := args[2:]
	if len(rest) > 0 {
		if d, dateErr := parseDate(rest[0]); dateErr == nil {
			date = d
			rest = rest[1:]
		}
	}

	return expenses.Input{
		CategoryID:  categoryID,
		Amount:      amount,
		Date:        date,
		Description: strings.Join(rest, " "),
	}, true, nil
}

func (s *HandlerService) dropCachedReports(userID int64) {
	if err := s.cache.InvalidateReports(userID, periodKeys()); err != nil {
		logger.Warn("cannot invalidate report cache",
			zap.Int64("userID", userID), zap.Error(err))
	}
}
