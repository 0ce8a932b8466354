package dto

// StatsResponse is the dashboard overview.
type StatsResponse struct {
	Projects          int64 `json:"projects"`
	Tickets           int64 `json:"tickets"`
	NewThisWeek       int64 `json:"new_this_week"`
	Unassigned        int64 `json:"unassigned"`
	Overdue           int64 `json:"overdue"`
	MyAssigned        int64 `json:"my_assigned"`
	MyCreated         int64 `json:"my_created"`
	MyOverdue         int64 `json:"my_overdue"`
	MyCompletedInWeek int64 `json:"my_completed_in_week"`
	Users             int64 `json:"users"`
}
