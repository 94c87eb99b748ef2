package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"snack-gateway/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm,omitempty"`
	Nickname        string `json:"nickname"`
	CompanyName     string `json:"company_name,omitempty"`
	BizNumber       string `json:"biz_number,omitempty"`
}

type wireAuthResult struct {
	AccessToken      string          `json:"accessToken"`
	AccessTokenSnake string          `json:"access_token"`
	Token            string          `json:"token"`
	User             json.RawMessage `json:"user"`
}

func decodeAuthResult(body []byte) (models.AuthResult, error) {
	var w wireAuthResult
	if err := json.Unmarshal(body, &w); err != nil {
		return models.AuthResult{}, fmt.Errorf("failed to unmarshal auth response: %w", err)
	}
	result := models.AuthResult{AccessToken: w.AccessToken}
	if result.AccessToken == "" {
		result.AccessToken = w.AccessTokenSnake
	}
	if result.AccessToken == "" {
		result.AccessToken = w.Token
	}
	if result.AccessToken == "" {
		return models.AuthResult{}, fmt.Errorf("upstream returned no access token")
	}
	if len(w.User) > 0 {
		user, err := decodeUser(w.User)
		if err != nil {
			return models.AuthResult{}, err
		}
		result.User = user
	}
	return result, nil
}

// Login handles POST /auth/login
func (c *MarketClient) Login(ctx context.Context, email, password string) (models.AuthResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return models.AuthResult{}, err
	}
	return decodeAuthResult(body)
}

// Register handles POST /auth/signup
func (c *MarketClient) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/auth/signup", signupRequest{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Nickname:        req.Nickname,
		CompanyName:     req.CompanyName,
		BizNumber:       req.BizNumber,
	})
	if err != nil {
		return models.AuthResult{}, err
	}
	return decodeAuthResult(body)
}

// Logout handles POST /auth/logout
func (c *MarketClient) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil)
	return err
}

// Me handles GET /auth/me
func (c *MarketClient) Me(ctx context.Context) (models.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return models.User{}, err
	}
	return decodeUser(body)
}
