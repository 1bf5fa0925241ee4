package employee

type CreateEmployeeRequest struct {
	FullName    string `json:"full_name" binding:"required,max=150"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone" binding:"omitempty,max=30"`
	Designation string `json:"designation" binding:"omitempty,max=100"`
	JoinedAt    string `json:"joined_at" binding:"omitempty,datetime=2006-01-02"`
}

type EmployeeResponse struct {
	ID           string `json:"id"`
	EmployeeCode string `json:"employee_code"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Designation  string `json:"designation,omitempty"`
	JoinedAt     string `json:"joined_at"`
}
