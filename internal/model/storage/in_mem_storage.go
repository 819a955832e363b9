package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/model/customerr"
)

// InMemStorage keeps everything in maps. Used by tests and as a
// throwaway dev backend. It mirrors the SQL backends' behavior,
// including the case-insensitive unique name check that the database
// index enforces there.
type InMemStorage struct {
	mu         sync.RWMutex
	categories map[int64]category.Record
	expenses   map[int64]expense.Record
	nextID     int64
}

func NewInMemStorage() *InMemStorage {
	return &InMemStorage{
		categories: make(map[int64]category.Record),
		expenses:   make(map[int64]expense.Record),
	}
}

// globalCategorySeed matches the seed migration of the SQL backends.
var globalCategorySeed = []string{
	"Food", "Rent", "Transport", "Groceries",
	"Entertainment", "Utilities", "Health", "Shopping",
}

// SeedGlobalCategories loads the fixed shared categories the SQL
// backends get from the seed migration.
func (s *InMemStorage) SeedGlobalCategories(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		s.nextID++
		s.categories[s.nextID] = category.Record{
			ID:    s.nextID,
			Name:  name,
			Owner: category.Global(),
		}
	}
}

func (s *InMemStorage) GetCategoryByID(_ context.Context, id int64) (category.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.categories[id]
	if !ok {
		return category.Record{}, &customerr.NotFoundError{Entity: "category", ID: id}
	}
	return rec, nil
}

func (s *InMemStorage) ListCategories(_ context.Context, userID int64) ([]category.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cats := make([]category.Record, 0)
	for _, rec := range s.categories {
		if rec.Owner.VisibleTo(userID) {
			cats = append(cats, rec)
		}
	}
	sort.Slice(cats, func(i, j int) bool {
		return strings.ToLower(cats[i].Name) < strings.ToLower(cats[j].Name)
	})
	return cats, nil
}

func (s *InMemStorage) InsertCategory(_ context.Context, rec category.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scopeHasName(rec.Owner, rec.Name, 0) {
		return 0, &customerr.DuplicateNameError{Name: rec.Name}
	}
	s.nextID++
	rec.ID = s.nextID
	s.categories[rec.ID] = rec
	return rec.ID, nil
}

func (s *InMemStorage) UpdateCategory(_ context.Context, rec category.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.categories[rec.ID]
	if !ok || cur.Owner != rec.Owner {
		return false, nil
	}
	if s.scopeHasName(rec.Owner, rec.Name, rec.ID) {
		return false, &customerr.DuplicateNameError{Name: rec.Name}
	}
	s.categories[rec.ID] = rec
	return true, nil
}

func (s *InMemStorage) DeleteCategory(_ context.Context, id, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.categories[id]
	if !ok || !cur.Owner.BelongsTo(userID) {
		return false, nil
	}
	delete(s.categories, id)
	return true, nil
}

func (s *InMemStorage) CountExpensesInCategory(_ context.Context, categoryID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, rec := range s.expenses {
		if rec.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *InMemStorage) GetExpenseByID(_ context.Context, id int64) (expense.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.expenses[id]
	if !ok {
		return expense.Record{}, &customerr.NotFoundError{Entity: "expense", ID: id}
	}
	return rec, nil
}

func (s *InMemStorage) ListUserExpenses(_ context.Context, userID int64) ([]expense.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exps := make([]expense.Record, 0)
	for _, rec := range s.expenses {
		if rec.UserID == userID {
			exps = append(exps, rec)
		}
	}
	sort.Slice(exps, func(i, j int) bool {
		di, dj := expense.Day(exps[i].Date), expense.Day(exps[j].Date)
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return exps[i].ID > exps[j].ID
	})
	return exps, nil
}

func (s *InMemStorage) InsertExpense(_ context.Context, rec expense.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	rec.Date = expense.Day(rec.Date)
	s.expenses[rec.ID] = rec
	return rec.ID, nil
}

func (s *InMemStorage) UpdateExpense(_ context.Context, rec expense.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.expenses[rec.ID]
	if !ok || cur.UserID != rec.UserID {
		return false, nil
	}
	rec.Date = expense.Day(rec.Date)
	s.expenses[rec.ID] = rec
	return true, nil
}

func (s *InMemStorage) DeleteExpense(_ context.Context, id, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.expenses[id]
	if !ok || cur.UserID != userID {
		return false, nil
	}
	delete(s.expenses, id)
	return true, nil
}

// callers hold s.mu
func (s *InMemStorage) scopeHasName(owner category.Owner, name string, excludeID int64) bool {
	for _, rec := range s.categories {
		if rec.ID == excludeID {
			continue
		}
		if rec.Owner == owner && category.SameName(rec.Name, name) {
			return true
		}
	}
	return false
}
