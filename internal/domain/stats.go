package domain

// Stats is the dashboard overview for one user.
type Stats struct {
	Projects          int64
	Tickets           int64
	NewThisWeek       int64
	Unassigned        int64
	Overdue           int64
	MyAssigned        int64
	MyCreated         int64
	MyOverdue         int64
	MyCompletedInWeek int64
	Users             int64
}

// DoneStatusNames are the status names treated as finished by convention.
var DoneStatusNames = []string{"Completed", "Done", "Closed"}
