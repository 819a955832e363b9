// Package expenses implements expense bookkeeping for a single caller:
// create, edit and delete, all scoped to the owner supplied by the
// identity layer. List-and-summarize lives in the reports package.
package expenses

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/entity/money"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/customerr"
)

type expenseStorage interface {
	GetCategoryByID(ctx context.Context, id int64) (category.Record, error)
	GetExpenseByID(ctx context.Context, id int64) (expense.Record, error)
	InsertExpense(ctx context.Context, rec expense.Record) (int64, error)
	UpdateExpense(ctx context.Context, rec expense.Record) (bool, error)
	DeleteExpense(ctx context.Context, id, userID int64) (bool, error)
}

type Service struct {
	storage expenseStorage
}

func NewService(storage expenseStorage) *Service {
	return &Service{storage: storage}
}

// Input carries the fields a caller may set on an expense. The owner
// is never part of it: it always comes from the authenticated caller.
type Input struct {
	CategoryID  int64
	Date        time.Time
	Amount      money.Amount
	Description string
}

// Add records a new expense for the user after checking the amount,
// the description length, and that the chosen category is visible to
// them (their own or a global one).
func (s *Service) Add(ctx context.Context, userID int64, in Input) (expense.Record, error) {
	if err := s.check(ctx, userID, in); err != nil {
		return expense.Record{}, err
	}

	rec := expense.Record{
		UserID:      userID,
		CategoryID:  in.CategoryID,
		Date:        expense.Day(in.Date),
		Amount:      in.Amount,
		Description: in.Description,
	}
	id, err := s.storage.InsertExpense(ctx, rec)
	if err != nil {
		return expense.Record{}, errors.Wrap(err, "add expense")
	}
	rec.ID = id

	logger.Info("expense added",
		zap.Int64("userID", userID),
		zap.Int64("id", id),
		zap.Int64("categoryID", in.CategoryID))
	return rec, nil
}

// Edit rewrites the mutable fields of one of the user's expenses. The
// owner is immutable; an id belonging to someone else reads as not
// found.
func (s *Service) Edit(ctx context.Context, userID, id int64, in Input) (expense.Record, error) {
	cur, err := s.storage.GetExpenseByID(ctx, id)
	if err != nil {
		return expense.Record{}, errors.Wrap(err, "edit expense")
	}
	if cur.UserID != userID {
		return expense.Record{}, &customerr.NotFoundError{Entity: "expense", ID: id}
	}

	if err = s.check(ctx, userID, in); err != nil {
		return expense.Record{}, err
	}

	cur.CategoryID = in.CategoryID
	cur.Date = expense.Day(in.Date)
	cur.Amount = in.Amount
	cur.Description = in.Description

	ok, err := s.storage.UpdateExpense(ctx, cur)
	if err != nil {
		return expense.Record{}, errors.Wrap(err, "edit expense")
	}
	if !ok {
		return expense.Record{}, s.writeConflict(ctx, userID, id)
	}
	return cur, nil
}

// Remove deletes one of the user's expenses.
func (s *Service) Remove(ctx context.Context, userID, id int64) error {
	cur, err := s.storage.GetExpenseByID(ctx, id)
	if err != nil {
		return errors.Wrap(err, "remove expense")
	}
	if cur.UserID != userID {
		return &customerr.NotFoundError{Entity: "expense", ID: id}
	}

	ok, err := s.storage.DeleteExpense(ctx, id, userID)
	if err != nil {
		return errors.Wrap(err, "remove expense")
	}
	if !ok {
		return s.writeConflict(ctx, userID, id)
	}

	logger.Info("expense removed", zap.Int64("userID", userID), zap.Int64("id", id))
	return nil
}

func (s *Service) check(ctx context.Context, userID int64, in Input) error {
	if !in.Amount.IsPositive() {
		return &customerr.ValidationError{Field: "amount", Msg: "must be at least 0.01"}
	}
	if len(in.Description) > expense.MaxDescriptionLen {
		return &customerr.ValidationError{Field: "description", Msg: "too long"}
	}
	if in.Date.IsZero() {
		return &customerr.RequiredFieldError{Field: "date"}
	}

	cat, err := s.storage.GetCategoryByID(ctx, in.CategoryID)
	if err != nil {
		return errors.Wrap(err, "check expense")
	}
	if !cat.Owner.VisibleTo(userID) {
		// invisible categories read the same as absent ones
		return &customerr.NotFoundError{Entity: "category", ID: in.CategoryID}
	}
	return nil
}

func (s *Service) writeConflict(ctx context.Context, userID, id int64) error {
	cur, err := s.storage.GetExpenseByID(ctx, id)
	if err != nil || cur.UserID != userID {
		return &customerr.NotFoundError{Entity: "expense", ID: id}
	}
	return &customerr.ConflictError{Entity: "expense", ID: id}
}
