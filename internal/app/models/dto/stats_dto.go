package dto

// StatsResponse is the admin dashboard summary.
type StatsResponse struct {
	ActiveSessions     int64 `json:"activeSessions"`
	PlannedSessions    int64 `json:"plannedSessions"`
	ConfirmedSessions  int64 `json:"confirmedSessions"`
	CancelledSessions  int64 `json:"cancelledSessions"`
	ActiveTeachers     int64 `json:"activeTeachers"`
	Rooms              int64 `json:"rooms"`
	Programs           int64 `json:"programs"`
	PendingUnavailable int64 `json:"pendingUnavailability"`
}
