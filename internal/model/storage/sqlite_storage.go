package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/model/customerr"
)

// SQLiteStorage is the single-file backend for local setups. Same
// schema and semantics as PostgresStorage, question-mark placeholders
// instead of dollar ones.
type SQLiteStorage struct {
	db *sql.DB
}

type sqliteConfig interface {
	Path() string
}

func NewSQLiteStorage(config sqliteConfig) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", config.Path())
	if err != nil {
		return nil, errors.Wrap(err, "cannot open database")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "cannot open database")
	}
	if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, errors.Wrap(err, "cannot enable foreign keys")
	}
	if err = runMigrations(db, DriverSQLite); err != nil {
		return nil, errors.Wrap(err, "cannot migrate database")
	}
	return &SQLiteStorage{db}, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !stderrors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int64) (category.Record, error) {
	query := sq.Select("id", "name", "owner_id").
		From("categories").
		Where(sq.Eq{"id": id})

	var rec category.Record
	var owner sql.NullInt64
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&rec.ID, &rec.Name, &owner)
	if stderrors.Is(err, sql.ErrNoRows) {
		return category.Record{}, &customerr.NotFoundError{Entity: "category", ID: id}
	}
	if err != nil {
		return category.Record{}, errors.Wrap(err, "get category")
	}
	rec.Owner = ownerFromSQL(owner)
	return rec, nil
}

func (s *SQLiteStorage) ListCategories(ctx context.Context, userID int64) ([]category.Record, error) {
	query := sq.Select("id", "name", "owner_id").
		From("categories").
		Where(sq.Or{sq.Eq{"owner_id": nil}, sq.Eq{"owner_id": userID}}).
		OrderBy("LOWER(name)")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	defer closeRows(rows)

	cats := make([]category.Record, 0)
	for rows.Next() {
		var rec category.Record
		var owner sql.NullInt64
		if err = rows.Scan(&rec.ID, &rec.Name, &owner); err != nil {
			return nil, errors.Wrap(err, "list categories")
		}
		rec.Owner = ownerFromSQL(owner)
		cats = append(cats, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return cats, nil
}

func (s *SQLiteStorage) InsertCategory(ctx context.Context, rec category.Record) (int64, error) {
	query := sq.Insert("categories").
		Columns("name", "owner_id").
		Values(rec.Name, ownerToSQL(rec.Owner))

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if isSQLiteUniqueViolation(err) {
		return 0, &customerr.DuplicateNameError{Name: rec.Name}
	}
	if err != nil {
		return 0, errors.Wrap(err, "insert category")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "insert category")
	}
	return id, nil
}

func (s *SQLiteStorage) UpdateCategory(ctx context.Context, rec category.Record) (bool, error) {
	ownerID, owned := rec.Owner.UserID()
	if !owned {
		return false, errors.New("update category: global categories are immutable")
	}
	query := sq.Update("categories").
		Set("name", rec.Name).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": rec.ID, "owner_id": ownerID})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if isSQLiteUniqueViolation(err) {
		return false, &customerr.DuplicateNameError{Name: rec.Name}
	}
	if err != nil {
		return false, errors.Wrap(err, "update category")
	}
	return rowsAffected(res), nil
}

func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id, userID int64) (bool, error) {
	query := sq.Delete("categories").
		Where(sq.Eq{"id": id, "owner_id": userID})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return false, errors.Wrap(err, "delete category")
	}
	return rowsAffected(res), nil
}

func (s *SQLiteStorage) CountExpensesInCategory(ctx context.Context, categoryID int64) (int64, error) {
	query := sq.Select("count(*)").
		From("expenses").
		Where(sq.Eq{"category_id": categoryID})

	var n int64
	if err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count expenses")
	}
	return n, nil
}

func (s *SQLiteStorage) GetExpenseByID(ctx context.Context, id int64) (expense.Record, error) {
	query := sq.Select("id", "owner_id", "category_id", "spent_at", "amount_cents", "description").
		From("expenses").
		Where(sq.Eq{"id": id})

	rec, err := scanExpense(query.RunWith(s.db).QueryRowContext(ctx))
	if stderrors.Is(err, sql.ErrNoRows) {
		return expense.Record{}, &customerr.NotFoundError{Entity: "expense", ID: id}
	}
	if err != nil {
		return expense.Record{}, errors.Wrap(err, "get expense")
	}
	return rec, nil
}

func (s *SQLiteStorage) ListUserExpenses(ctx context.Context, userID int64) ([]expense.Record, error) {
	query := sq.Select("id", "owner_id", "category_id", "spent_at", "amount_cents", "description").
		From("expenses").
		Where(sq.Eq{"owner_id": userID}).
		OrderBy("spent_at DESC", "id DESC")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	defer closeRows(rows)

	exps := make([]expense.Record, 0)
	for rows.Next() {
		rec, scanErr := scanExpense(rows)
		if scanErr != nil {
			return nil, errors.Wrap(scanErr, "list expenses")
		}
		exps = append(exps, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	return exps, nil
}

func (s *SQLiteStorage) InsertExpense(ctx context.Context, rec expense.Record) (int64, error) {
	query := sq.Insert("expenses").
		Columns("owner_id", "category_id", "spent_at", "amount_cents", "description").
		Values(rec.UserID, rec.CategoryID, expense.Day(rec.Date), rec.Amount.Cents(), rec.Description)

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "insert expense")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "insert expense")
	}
	return id, nil
}

func (s *SQLiteStorage) UpdateExpense(ctx context.Context, rec expense.Record) (bool, error) {
	query := sq.Update("expenses").
		Set("category_id", rec.CategoryID).
		Set("spent_at", expense.Day(rec.Date)).
		Set("amount_cents", rec.Amount.Cents()).
		Set("description", rec.Description).
		Where(sq.Eq{"id": rec.ID, "owner_id": rec.UserID})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return false, errors.Wrap(err, "update expense")
	}
	return rowsAffected(res), nil
}

func (s *SQLiteStorage) DeleteExpense(ctx context.Context, id, userID int64) (bool, error) {
	query := sq.Delete("expenses").
		Where(sq.Eq{"id": id, "owner_id": userID})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return false, errors.Wrap(err, "delete expense")
	}
	return rowsAffected(res), nil
}
