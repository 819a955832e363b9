package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/entity/money"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/customerr"
)

const dsnTemplate = "user=%s password=%s host=%s dbname=%s sslmode=disable"

const pgUniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresStorage struct {
	db *sql.DB
}

type postgresConfig interface {
	Host() string
	Username() string
	Password() string
	Database() string
}

func NewPostgresStorage(config postgresConfig) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", fmt.Sprintf(dsnTemplate,
		config.Username(),
		config.Password(),
		config.Host(),
		config.Database()))
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if err = runMigrations(db, DriverPostgres); err != nil {
		return nil, errors.Wrap(err, "cannot migrate database")
	}
	return &PostgresStorage{db}, nil
}

func isPgUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}

func (s *PostgresStorage) GetCategoryByID(ctx context.Context, id int64) (category.Record, error) {
	query := psql.Select("id", "name", "owner_id").
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

func (s *PostgresStorage) ListCategories(ctx context.Context, userID int64) ([]category.Record, error) {
	query := psql.Select("id", "name", "owner_id").
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

func (s *PostgresStorage) InsertCategory(ctx context.Context, rec category.Record) (int64, error) {
	query := psql.Insert("categories").
		Columns("name", "owner_id").
		Values(rec.Name, ownerToSQL(rec.Owner)).
		Suffix("RETURNING id")

	var id int64
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&id)
	if isPgUniqueViolation(err) {
		return 0, &customerr.DuplicateNameError{Name: rec.Name}
	}
	if err != nil {
		return 0, errors.Wrap(err, "insert category")
	}
	return id, nil
}

func (s *PostgresStorage) UpdateCategory(ctx context.Context, rec category.Record) (bool, error) {
	ownerID, owned := rec.Owner.UserID()
	if !owned {
		return false, errors.New("update category: global categories are immutable")
	}
	query := psql.Update("categories").
		Set("name", rec.Name).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": rec.ID, "owner_id": ownerID})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if isPgUniqueViolation(err) {
		return false, &customerr.DuplicateNameError{Name: rec.Name}
	}
	if err != nil {
		return false, errors.Wrap(err, "update category")
	}
	return rowsAffected(res), nil
}

func (s *PostgresStorage) DeleteCategory(ctx context.Context, id, userID int64) (bool, error) {
	query := psql.Delete("categories").
		Where(sq.Eq{"id": id, "owner_id": userID})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return false, errors.Wrap(err, "delete category")
	}
	return rowsAffected(res), nil
}

func (s *PostgresStorage) CountExpensesInCategory(ctx context.Context, categoryID int64) (int64, error) {
	query := psql.Select("count(*)").
		From("expenses").
		Where(sq.Eq{"category_id": categoryID})

	var n int64
	if err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count expenses")
	}
	return n, nil
}

func (s *PostgresStorage) GetExpenseByID(ctx context.Context, id int64) (expense.Record, error) {
	query := psql.Select("id", "owner_id", "category_id", "spent_at", "amount_cents", "description").
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

func (s *PostgresStorage) ListUserExpenses(ctx context.Context, userID int64) ([]expense.Record, error) {
	query := psql.Select("id", "owner_id", "category_id", "spent_at", "amount_cents", "description").
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

func (s *PostgresStorage) InsertExpense(ctx context.Context, rec expense.Record) (int64, error) {
	query := psql.Insert("expenses").
		Columns("owner_id", "category_id", "spent_at", "amount_cents", "description").
		Values(rec.UserID, rec.CategoryID, expense.Day(rec.Date), rec.Amount.Cents(), rec.Description).
		Suffix("RETURNING id")

	var id int64
	if err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "insert expense")
	}
	return id, nil
}

func (s *PostgresStorage) UpdateExpense(ctx context.Context, rec expense.Record) (bool, error) {
	query := psql.Update("expenses").
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

func (s *PostgresStorage) DeleteExpense(ctx context.Context, id, userID int64) (bool, error) {
	query := psql.Delete("expenses").
		Where(sq.Eq{"id": id, "owner_id": userID})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return false, errors.Wrap(err, "delete expense")
	}
	return rowsAffected(res), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (expense.Record, error) {
	var rec expense.Record
	var cents int64
	err := row.Scan(&rec.ID, &rec.UserID, &rec.CategoryID, &rec.Date, &cents, &rec.Description)
	if err != nil {
		return expense.Record{}, err
	}
	rec.Amount = money.FromCents(cents)
	return rec, nil
}

func rowsAffected(res sql.Result) bool {
	n, err := res.RowsAffected()
	if err != nil {
		logger.Error("cannot read rows affected", zap.Error(err))
		return false
	}
	return n > 0
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logger.Error("error closing rows", zap.Error(err))
	}
}
