package models

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Nickname     string `json:"nickname"`
	IsAdmin      string `json:"is_admin"`
	IsSuperAdmin string `json:"is_super_admin"`
	CompanyName  string `json:"company_name"`
}

func (u User) Admin() bool {
	return u.IsAdmin == "Y" || u.SuperAdmin()
}

func (u User) SuperAdmin() bool {
	return u.IsSuperAdmin == "Y"
}

// LoginRequest and RegisterRequest carry no binding rules; validators owns their field messages.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Nickname        string `json:"nickname"`
	CompanyName     string `json:"company_name"`
	BizNumber       string `json:"biz_number"`
}

// AuthResult is what the upstream returns on login and signup.
type AuthResult struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}
