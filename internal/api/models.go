package api

// LoginRequest is the admin login payload, as JSON or form fields.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
	Next     string `json:"next"`
}

// LoginResponse is returned to JSON clients after a successful login.
type LoginResponse struct {
	Next string `json:"next"`
}
