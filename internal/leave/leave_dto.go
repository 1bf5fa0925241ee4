package leave

type UpsertLeaveRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	SchoolID   string `json:"school_id" binding:"required,uuid"`
	Month      int    `json:"month" binding:"required,min=1,max=12"`
	Year       int    `json:"year" binding:"required,min=2000,max=2100"`
	Paid       *int   `json:"paid" binding:"omitempty,min=0"`
	Unpaid     *int   `json:"unpaid" binding:"omitempty,min=0"`
}

type SchoolPeriodFilter struct {
	SchoolID string `form:"school_id" binding:"required,uuid"`
	Month    int    `form:"month" binding:"required,min=1,max=12"`
	Year     int    `form:"year" binding:"required,min=2000,max=2100"`
}

type LeaveResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	SchoolID   string `json:"school_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	Paid       int    `json:"paid"`
	Unpaid     int    `json:"unpaid"`
	UpdatedAt  string `json:"updated_at"`
}
