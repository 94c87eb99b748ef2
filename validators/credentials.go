package validators

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern  = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	letterPattern = regexp.MustCompile(`[A-Za-z]`)
	digitPattern  = regexp.MustCompile(`\d`)
)

const (
	MinPasswordLength = 8
	MaxNicknameLength = 20
)

// FieldError is an inline error for one form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError blocks a request before any network call is made.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidateEmail validates the email address format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidatePassword requires at least MinPasswordLength characters mixing letters and digits.
func ValidatePassword(password string) bool {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return false
	}
	return letterPattern.MatchString(password) && digitPattern.MatchString(password)
}

func ValidateLogin(email, password string) error {
	verr := &ValidationError{}
	if !ValidateEmail(email) {
		verr.add("email", "이메일 형식이 올바르지 않습니다.")
	}
	if password == "" {
		verr.add("password", "비밀번호를 입력해주세요.")
	}
	return verr.orNil()
}

func ValidateRegistration(email, password, passwordConfirm, nickname string) error {
	verr := &ValidationError{}
	if !ValidateEmail(email) {
		verr.add("email", "이메일 형식이 올바르지 않습니다.")
	}
	if !ValidatePassword(password) {
		verr.add("password", fmt.Sprintf("비밀번호는 영문과 숫자를 포함해 %d자 이상이어야 합니다.", MinPasswordLength))
	}
	if passwordConfirm != "" && passwordConfirm != password {
		verr.add("passwordConfirm", "비밀번호가 일치하지 않습니다.")
	}
	name := strings.TrimSpace(nickname)
	if name == "" || utf8.RuneCountInString(name) > MaxNicknameLength {
		verr.add("nickname", fmt.Sprintf("이름은 1자 이상 %d자 이하로 입력해주세요.", MaxNicknameLength))
	}
	return verr.orNil()
}
