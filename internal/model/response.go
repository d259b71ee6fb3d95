package model

type MessageResponse struct {
	Message string `json:"message"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

type UserAuthResponse struct {
	User  AccountResponse `json:"user"`
	Token string          `json:"token"`
}

type CaptainAuthResponse struct {
	Captain AccountResponse `json:"captain"`
	Token   string          `json:"token"`
}

type UserProfileResponse struct {
	User AccountResponse `json:"user"`
}

type CaptainProfileResponse struct {
	Captain AccountResponse `json:"captain"`
}
