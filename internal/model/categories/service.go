// Package categories implements the user-facing category operations:
// listing the visible set, creating and renaming with the per-scope
// unique-name rule, and deletion guarded against dangling expense
// references.
package categories

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/customerr"
)

type categoryStorage interface {
	GetCategoryByID(ctx context.Context, id int64) (category.Record, error)
	ListCategories(ctx context.Context, userID int64) ([]category.Record, error)
	InsertCategory(ctx context.Context, rec category.Record) (int64, error)
	UpdateCategory(ctx context.Context, rec category.Record) (bool, error)
	DeleteCategory(ctx context.Context, id, userID int64) (bool, error)
	CountExpensesInCategory(ctx context.Context, categoryID int64) (int64, error)
}

type Service struct {
	storage categoryStorage
}

func NewService(storage categoryStorage) *Service {
	return &Service{storage: storage}
}

// List returns the categories the user may spend against: the global
// set plus their own, sorted by name.
func (s *Service) List(ctx context.Context, userID int64) ([]category.Record, error) {
	cats, err := s.storage.ListCategories(ctx, userID)
	return cats, errors.Wrap(err, "list categories")
}

// Create adds a private category for the user. The stored name keeps
// the caller's casing, trimmed; uniqueness is judged case-insensitively
// against the user's whole visible scope, global names included.
func (s *Service) Create(ctx context.Context, userID int64, rawName string) (category.Record, error) {
	name, err := s.checkName(ctx, userID, rawName, 0)
	if err != nil {
		return category.Record{}, err
	}

	rec := category.Record{Name: name, Owner: category.OwnedBy(userID)}
	rec.ID, err = s.storage.InsertCategory(ctx, rec)
	if err != nil {
		// the unique index can still fire under a concurrent create
		return category.Record{}, errors.Wrap(err, "create category")
	}

	logger.Info("category created", zap.Int64("userID", userID), zap.Int64("id", rec.ID))
	return rec, nil
}

// Rename changes the name of one of the user's own categories. Global
// categories and other users' categories come back as not found.
func (s *Service) Rename(ctx context.Context, userID, id int64, rawName string) (category.Record, error) {
	cur, err := s.storage.GetCategoryByID(ctx, id)
	if err != nil {
		return category.Record{}, errors.Wrap(err, "rename category")
	}
	if !cur.Owner.BelongsTo(userID) {
		return category.Record{}, &customerr.NotFoundError{Entity: "category", ID: id}
	}

	name, err := s.checkName(ctx, userID, rawName, id)
	if err != nil {
		return category.Record{}, err
	}

	cur.Name = name
	ok, err := s.storage.UpdateCategory(ctx, cur)
	if err != nil {
		return category.Record{}, errors.Wrap(err, "rename category")
	}
	if !ok {
		return category.Record{}, s.updateConflict(ctx, userID, id)
	}
	return cur, nil
}

// Delete removes one of the user's own categories, refusing while any
// expense still references it.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	cur, err := s.storage.GetCategoryByID(ctx, id)
	if err != nil {
		return errors.Wrap(err, "delete category")
	}
	if !cur.Owner.BelongsTo(userID) {
		return &customerr.NotFoundError{Entity: "category", ID: id}
	}

	dependents, err := s.storage.CountExpensesInCategory(ctx, id)
	if err != nil {
		return errors.Wrap(err, "delete category")
	}
	if dependents > 0 {
		return &customerr.HasDependentsError{Dependents: dependents}
	}

	ok, err := s.storage.DeleteCategory(ctx, id, userID)
	if err != nil {
		return errors.Wrap(err, "delete category")
	}
	if !ok {
		return s.updateConflict(ctx, userID, id)
	}

	logger.Info("category deleted", zap.Int64("userID", userID), zap.Int64("id", id))
	return nil
}

// checkName runs the uniqueness enforcer: trim, require non-empty,
// cap the length, and reject any case-insensitive match in the user's
// scope except the record being edited.
func (s *Service) checkName(ctx context.Context, userID int64, rawName string, excludeID int64) (string, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return "", &customerr.RequiredFieldError{Field: "name"}
	}
	if len(name) > category.MaxNameLen {
		return "", &customerr.ValidationError{Field: "name", Msg: "too long"}
	}

	visible, err := s.storage.ListCategories(ctx, userID)
	if err != nil {
		return "", errors.Wrap(err, "check category name")
	}
	for _, rec := range visible {
		if rec.ID != excludeID && category.SameName(rec.Name, name) {
			return "", &customerr.DuplicateNameError{Name: name}
		}
	}
	return name, nil
}

// updateConflict resolves a write that matched no rows: if the record
// is still there under the caller's ownership the write lost a race
// and may be retried, otherwise it is simply gone.
func (s *Service) updateConflict(ctx context.Context, userID, id int64) error {
	cur, err := s.storage.GetCategoryByID(ctx, id)
	if err != nil || !cur.Owner.BelongsTo(userID) {
		return &customerr.NotFoundError{Entity: "category", ID: id}
	}
	return &customerr.ConflictError{Entity: "category", ID: id}
}
