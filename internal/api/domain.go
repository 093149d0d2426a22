package api

import "github.com/golang-jwt/jwt/v5"

// Response is the generic success/error envelope.
type Response struct {
	Success   bool   `json:"success" example:"true"`
	Message   string `json:"message,omitempty" example:"Operation successful"`
	Error     string `json:"error,omitempty" example:"Resource not found"`
	RequestID string `json:"request_id,omitempty"`
}

// Claims are the custom claims of an access token issued by the identity
// service. Only the user id is consumed here.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"eml,omitempty"`
	Role   string `json:"rol,omitempty"`
	jwt.RegisteredClaims
}
