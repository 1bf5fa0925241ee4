package posting

import (
	"github.com/shopspring/decimal"
)

type CreatePostingRequest struct {
	EmployeeID           string           `json:"employee_id" binding:"required,uuid"`
	SchoolID             string           `json:"school_id" binding:"required,uuid"`
	Status               string           `json:"status" binding:"required,oneof=continue resign terminate change_school"`
	MonthlyBillingSalary *decimal.Decimal `json:"monthly_billing_salary"`
	TDSPercent           *decimal.Decimal `json:"tds_percent"`
	GSTPercent           *decimal.Decimal `json:"gst_percent"`
	StartDate            string           `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate              string           `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Remark               string           `json:"remark" binding:"max=500"`
}

// UpdatePostingRequest only changes the fields that are present.
type UpdatePostingRequest struct {
	Status               *string          `json:"status" binding:"omitempty,oneof=continue resign terminate change_school"`
	MonthlyBillingSalary *decimal.Decimal `json:"monthly_billing_salary"`
	TDSPercent           *decimal.Decimal `json:"tds_percent"`
	GSTPercent           *decimal.Decimal `json:"gst_percent"`
	EndDate              *string          `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Remark               *string          `json:"remark" binding:"omitempty,max=500"`
}

type ListPostingsFilter struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	SchoolID   string `form:"school_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=continue resign terminate change_school"`
	IsActive   *bool  `form:"is_active"`
}

type SalaryChangeResponse struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	To     string          `json:"to"`
}

type PostingResponse struct {
	ID                   string                 `json:"id"`
	EmployeeID           string                 `json:"employee_id"`
	EmployeeName         string                 `json:"employee_name,omitempty"`
	EmployeeCode         string                 `json:"employee_code,omitempty"`
	SchoolID             string                 `json:"school_id"`
	SchoolName           string                 `json:"school_name,omitempty"`
	StartDate            string                 `json:"start_date"`
	EndDate              *string                `json:"end_date"`
	Status               string                 `json:"status"`
	IsActive             bool                   `json:"is_active"`
	MonthlyBillingSalary decimal.Decimal        `json:"monthly_billing_salary"`
	TDSPercent           decimal.Decimal        `json:"tds_percent"`
	GSTPercent           decimal.Decimal        `json:"gst_percent"`
	SalaryHistory        []SalaryChangeResponse `json:"salary_history"`
	Remark               string                 `json:"remark,omitempty"`
	CreatedBy            string                 `json:"created_by,omitempty"`
	UpdatedBy            string                 `json:"updated_by,omitempty"`
	CreatedAt            string                 `json:"created_at"`
	UpdatedAt            string                 `json:"updated_at"`
}

type ReconcileReport struct {
	SchoolsChecked      int `json:"schools_checked"`
	TrainersAdded       int `json:"trainers_added"`
	TrainersRemoved     int `json:"trainers_removed"`
	PostingsDeactivated int `json:"postings_deactivated"`
}
