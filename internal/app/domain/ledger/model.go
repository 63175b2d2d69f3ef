package ledger

import "time"

// IncomeEntry records revenue attributed to a project. Entries are
// append-only; there is no update or delete path.
type IncomeEntry struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Source    string    `json:"source" db:"source"`
	Date      time.Time `json:"date" db:"date"`
	Recurring bool      `json:"is_recurring" db:"is_recurring"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ExpenseEntry records a cost attributed to a project. Append-only.
type ExpenseEntry struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Category  string    `json:"category" db:"category"`
	Date      time.Time `json:"date" db:"date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
