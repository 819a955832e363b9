package storage

import (
	"context"
	"database/sql"
	"fmt"

	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/entity/expense"
)

// Storage is the full persistence surface the model layer relies on.
// Point lookups report customerr.NotFoundError for missing rows, and
// category writes report customerr.DuplicateNameError when the unique
// index on (owner scope, lowercased name) rejects them. Update and
// delete return false when no row matched, which the services turn
// into the conflict/not-found protocol.
type Storage interface {
	GetCategoryByID(ctx context.Context, id int64) (category.Record, error)
	ListCategories(ctx context.Context, userID int64) ([]category.Record, error)
	InsertCategory(ctx context.Context, rec category.Record) (int64, error)
	UpdateCategory(ctx context.Context, rec category.Record) (bool, error)
	DeleteCategory(ctx context.Context, id, userID int64) (bool, error)
	CountExpensesInCategory(ctx context.Context, categoryID int64) (int64, error)

	GetExpenseByID(ctx context.Context, id int64) (expense.Record, error)
	ListUserExpenses(ctx context.Context, userID int64) ([]expense.Record, error)
	InsertExpense(ctx context.Context, rec expense.Record) (int64, error)
	UpdateExpense(ctx context.Context, rec expense.Record) (bool, error)
	DeleteExpense(ctx context.Context, id, userID int64) (bool, error)
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type config interface {
	Driver() string
	Host() string
	Username() string
	Password() string
	Database() string
	Path() string
}

// New picks the backend named by the config.
func New(conf config) (Storage, error) {
	switch conf.Driver() {
	case DriverPostgres:
		return NewPostgresStorage(conf)
	case DriverSQLite:
		return NewSQLiteStorage(conf)
	case DriverMemory:
		mem := NewInMemStorage()
		mem.SeedGlobalCategories(globalCategorySeed...)
		return mem, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Driver())
	}
}

// The SQL backends keep owner as a nullable column: NULL marks the
// global scope. Go code never sees the null, only category.Owner.
func ownerToSQL(o category.Owner) sql.NullInt64 {
	if id, owned := o.UserID(); owned {
		return sql.NullInt64{Int64: id, Valid: true}
	}
	return sql.NullInt64{}
}

func ownerFromSQL(v sql.NullInt64) category.Owner {
	if v.Valid {
		return category.OwnedBy(v.Int64)
	}
	return category.Global()
}
