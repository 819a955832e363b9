package messages

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"

	"max.ks1230/expense-tracker/internal/entity/category"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/model/reports"
)

const dateLayout = "02.01.2006"

const commandParts = 2

func parseCommand(text string) (cmd, arg string) {
	text = strings.TrimSpace(text)
	split := strings.SplitN(text, " ", commandParts)

	if len(split) == commandParts {
		return split[0], split[1]
	}
	if strings.HasPrefix(text, "/") {
		return text, ""
	}
	return "", text
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	return d, errors.Wrap(err, "parse date")
}

// parseFilter reads report filter tokens: the period shortcuts week,
// month and year, or key=value pairs year=, month=, from=, to= and
// category=. Every token narrows the result further.
func parseFilter(arg string) (expense.Filter, error) {
	var f expense.Filter
	for _, tok := range strings.Fields(arg) {
		switch tok {
		case "week":
			from := now.BeginningOfWeek()
			f.From = &from
			continue
		case "month":
			from := now.BeginningOfMonth()
			f.From = &from
			continue
		case "year":
			from := now.BeginningOfYear()
			f.From = &from
			continue
		case "all":
			continue
		}

		key, val, ok := strings.Cut(tok, "=")
		if !ok {
			return expense.Filter{}, fmt.Errorf("unknown filter %q", tok)
		}
		switch key {
		case "year":
			y, err := strconv.Atoi(val)
			if err != nil {
				return expense.Filter{}, fmt.Errorf("bad year %q", val)
			}
			f.Year = &y
		case "month":
			m, err := strconv.Atoi(val)
			if err != nil || m < 1 || m > 12 {
				return expense.Filter{}, fmt.Errorf("bad month %q", val)
			}
			f.Month = &m
		case "from":
			d, err := parseDate(val)
			if err != nil {
				return expense.Filter{}, fmt.Errorf("bad from date %q", val)
			}
			f.From = &d
		case "to":
			d, err := parseDate(val)
			if err != nil {
				return expense.Filter{}, fmt.Errorf("bad to date %q", val)
			}
			f.To = &d
		case "category":
			id, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return expense.Filter{}, fmt.Errorf("bad category id %q", val)
			}
			f.CategoryID = &id
		default:
			return expense.Filter{}, fmt.Errorf("unknown filter %q", tok)
		}
	}
	return f, nil
}

// periodKeys lists the cache keys the period shortcuts resolve to
// right now. Mutations invalidate these; anything older ages out by
// TTL.
func periodKeys() []string {
	week, month, year := now.BeginningOfWeek(), now.BeginningOfMonth(), now.BeginningOfYear()
	return []string{
		expense.Filter{}.Key(),
		expense.Filter{From: &week}.Key(),
		expense.Filter{From: &month}.Key(),
		expense.Filter{From: &year}.Key(),
	}
}

func formatCategories(cats []category.Record) string {
	if len(cats) == 0 {
		return noCategoriesMessage
	}
	res := make([]string, 0, len(cats))
	for _, c := range cats {
		if c.Owner.IsGlobal() {
			res = append(res, fmt.Sprintf("#%d %s (shared)", c.ID, c.Name))
		} else {
			res = append(res, fmt.Sprintf("#%d %s", c.ID, c.Name))
		}
	}
	return strings.Join(res, "\n")
}

func formatExpenses(r reports.Report) string {
	if len(r.Items) == 0 {
		return noExpensesMessage
	}

	res := make([]string, 0, len(r.Items)+3)
	for _, it := range r.Items {
		line := fmt.Sprintf("#%d %s %s %s",
			it.ID, it.Date.Format(dateLayout), it.CategoryName, it.Amount)
		if it.Description != "" {
			line += " - " + it.Description
		}
		res = append(res, line)
	}
	res = append(res, "", fmt.Sprintf("Total: %s", r.Total))
	if len(r.Years) > 0 {
		res = append(res, fmt.Sprintf("Years on record: %s", formatYears(r.Years)))
	}
	return strings.Join(res, "\n")
}

func formatYears(years []int) string {
	strs := make([]string, 0, len(years))
	for _, y := range years {
		strs = append(strs, strconv.Itoa(y))
	}
	return strings.Join(strs, ", ")
}
