package dto

// MonthlyCount is a single point of the enrollments-per-month chart series.
type MonthlyCount struct {
	Month string `json:"month" example:"2025-04"`
	Count int64  `json:"count"`
}

// DashboardSummary aggregates the admin dashboard figures.
type DashboardSummary struct {
	TotalUsers           int64          `json:"totalUsers"`
	PublishedCourses     int64          `json:"publishedCourses"`
	TotalCourses         int64          `json:"totalCourses"`
	EnrollmentsByStatus  map[string]int64 `json:"enrollmentsByStatus"`
	Revenue              int64          `json:"revenue"` // Sum of completed payments, smallest currency unit
	MonthlyEnrollments   []MonthlyCount `json:"monthlyEnrollments"`
}
