package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/entity/money"
	"max.ks1230/expense-tracker/internal/logger"
)

type expensesStorage interface {
	ListUserExpenses(ctx context.Context, userID int64) ([]expense.Record, error)
	ListCategories(ctx context.Context, userID int64) ([]category.Record, error)
}

// Generator runs the expense query engine: it narrows a user's
// expenses by the supplied filter and aggregates the result into a
// spending report.
type Generator struct {
	storage expensesStorage
}

func NewGenerator(storage expensesStorage) *Generator {
	return &Generator{storage: storage}
}

type Item struct {
	expense.Record
	CategoryName string
}

type CategoryTotal struct {
	Name       string
	Total      money.Amount
	Percentage float64
}

type Report struct {
	// Items is the filtered listing, most recent date first.
	Items []Item
	// Total is the exact sum over Items.
	Total money.Amount
	// Categories breaks Total down per category name, largest first.
	Categories []CategoryTotal
	// Years lists every year the user has any expense in, ascending,
	// regardless of the filter. It backs the year-filter choices.
	Years []int
}

// Generate builds the report for one user. Filter fields are optional
// and AND-composed; an empty filter reports everything.
func (g *Generator) Generate(ctx context.Context, userID int64, f expense.Filter) (Report, error) {
	logger.Info("Generate report - start",
		zap.Int64("userID", userID), zap.String("filter", f.Key()))
	defer logger.Info("Generate report - end")

	all, err := g.storage.ListUserExpenses(ctx, userID)
	if err != nil {
		return Report{}, errors.Wrap(err, "generate report")
	}

	cats, err := g.storage.ListCategories(ctx, userID)
	if err != nil {
		return Report{}, errors.Wrap(err, "generate report")
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	report := Report{Years: distinctYears(all)}
	for _, rec := range all {
		if !f.Matches(rec) {
			continue
		}
		report.Items = append(report.Items, Item{
			Record:       rec,
			CategoryName: categoryName(names, rec.CategoryID),
		})
		report.Total = report.Total.Add(rec.Amount)
	}
	report.Categories = groupByCategory(report.Items, report.Total)
	return report, nil
}

func categoryName(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	// the referential guard makes this unreachable in practice
	return fmt.Sprintf("category %d", id)
}

func distinctYears(exps []expense.Record) []int {
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, rec := range exps {
		y := expense.Day(rec.Date).Year()
		if _, ok := seen[y]; !ok {
			seen[y] = struct{}{}
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

func groupByCategory(items []Item, total money.Amount) []CategoryTotal {
	sums := make(map[string]money.Amount)
	for _, it := range items {
		sums[it.CategoryName] = sums[it.CategoryName].Add(it.Amount)
	}

	rows := make([]CategoryTotal, 0, len(sums))
	for name, sum := range sums {
		row := CategoryTotal{Name: name, Total: sum}
		if total.IsPositive() {
			// float is fine here: percentages are display-only
			row.Percentage = float64(sum.Cents()) / float64(total.Cents()) * 100
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total.Cents() != rows[j].Total.Cents() {
			return rows[i].Total.Cents() > rows[j].Total.Cents()
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// Format renders a report the way the bot shows it.
func Format(r Report) string {
	if len(r.Items) == 0 {
		return "No expenses match"
	}

	res := make([]string, 0, len(r.Categories)+2)
	for _, row := range r.Categories {
		res = append(res, fmt.Sprintf("%s: %s (%.1f%%)", row.Name, row.Total, row.Percentage))
	}
	res = append(res, "", fmt.Sprintf("Total: %s", r.Total))
	return strings.Join(res, "\n")
}
