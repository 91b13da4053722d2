package client

import (
	"context"
	"net/http"

	"github.com/GriffinCanCode/sketchbox/internal/shared/types"
	"github.com/GriffinCanCode/sketchbox/internal/shared/utils"
)

// Register creates an account and returns its token and user record.
func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResult, error) {
	if err := utils.JoinErrors(
		utils.ValidateUsername(req.Username),
		utils.ValidateEmail(req.Email),
		utils.ValidatePassword(req.Password),
	); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, OpRegister, "/register", req)
}

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResult, error) {
	if err := utils.JoinErrors(
		utils.ValidateEmail(req.Email),
		utils.ValidateString(req.Password, "password", 1, utils.MaxPasswordLength, true),
	); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, OpLogin, "/login", req)
}

func (c *Client) authenticate(ctx context.Context, op, path string, body any) (*types.AuthResult, error) {
	var out types.AuthResult
	if _, err := c.do(ctx, op, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &RequestFailure{Op: op, Reason: "response missing token"}
	}
	return &out, nil
}
