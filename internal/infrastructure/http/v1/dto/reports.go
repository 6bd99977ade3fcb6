package dto

// CommissionsReportRequest holds the commissions report query parameters.
// Dates are RFC3339; omitted bounds are open.
type CommissionsReportRequest struct {
	FromDate string `form:"from"`
	ToDate   string `form:"to"`
}
