package server

import (
	"land-registry/internal/auth"
	"land-registry/internal/land"
)

type errorResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminLoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	AdminKey string `json:"adminKey"`
}

type authResp struct {
	Token    string     `json:"token"`
	User     *auth.User `json:"user"`
	Redirect string     `json:"redirect,omitempty"`
}

type userResp struct {
	Success bool       `json:"success"`
	User    *auth.User `json:"user"`
}

type landResp struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    *land.Record `json:"data"`
}

type landListResp struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Data    []land.Record `json:"data"`
}
