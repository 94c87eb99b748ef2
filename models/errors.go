package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	// Fields maps a form field to its inline message.
	Fields map[string]string `json:"fields,omitempty"`
}
