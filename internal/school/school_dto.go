package school

type CreateSchoolRequest struct {
	Name         string `json:"name" binding:"required,max=150"`
	Code         string `json:"code" binding:"required,max=30"`
	Address      string `json:"address"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
}

type UpdateSchoolStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

type ListSchoolsFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=active inactive"`
}

type SchoolResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Code            string   `json:"code"`
	Address         string   `json:"address,omitempty"`
	ContactEmail    string   `json:"contact_email,omitempty"`
	Status          string   `json:"status"`
	CurrentTrainers []string `json:"current_trainers"`
	CreatedAt       string   `json:"created_at"`
}
