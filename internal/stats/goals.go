package stats

// Goals are the reader's targets for a session. A zero field means the
// goal has not been set. Callers own the record; nothing here stores it.
type Goals struct {
	BooksPerYear int `json:"books_per_year"`
	PagesPerDay  int `json:"pages_per_day"`
}

// GoalStatus compares one target with the actual figure
type GoalStatus struct {
	Set      bool    `json:"set"`
	Target   float64 `json:"target"`
	Actual   float64 `json:"actual"`
	Fraction float64 `json:"fraction"`
	Met      bool    `json:"met"`
}

// GoalProgress is the goal tracker's view of a year
type GoalProgress struct {
	Year        int        `json:"year"`
	Books       GoalStatus `json:"books"`
	PagesPerDay GoalStatus `json:"pages_per_day"`
}

// EvaluateGoals compares goals with the year summary. Books completed in the
// year are measured against BooksPerYear and the average pages per reading
// day against PagesPerDay.
func EvaluateGoals(goals Goals, summary Summary) GoalProgress {
	return GoalProgress{
		Year:        summary.Year,
		Books:       evaluate(goals.BooksPerYear, float64(summary.CompletedCount)),
		PagesPerDay: evaluate(goals.PagesPerDay, summary.AvgPagesPerReadingDay),
	}
}

func evaluate(target int, actual float64) GoalStatus {
	status := GoalStatus{Actual: actual}
	if target <= 0 {
		return status
	}
	status.Set = true
	status.Target = float64(target)
	status.Fraction = min(actual/status.Target, 1.0)
	status.Met = actual >= status.Target
	return status
}
