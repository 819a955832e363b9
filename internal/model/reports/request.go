package reports

import "max.ks1230/expense-tracker/internal/entity/expense"

// Request is the unit of work the bot queues for the reporter process.
type Request struct {
	UserID int64          `json:"user_id"`
	Filter expense.Filter `json:"filter"`
}
