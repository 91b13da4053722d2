package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/sketchbox/internal/shared/types"
	"github.com/GriffinCanCode/sketchbox/internal/shared/utils"
)

// Operation names used in errors and metrics
const (
	OpGenerate = "generate"
	OpFix      = "fix"
	OpSave     = "save"
	OpGet      = "get"
	OpFeed     = "feed"
	OpMood     = "mood"
	OpRegister = "register"
	OpLogin    = "login"
)

// Generate asks the service for a program matching description.
func (c *Client) Generate(ctx context.Context, description string) (string, error) {
	if err := utils.ValidateDescription(description); err != nil {
		return "", err
	}
	var out types.CodeResponse
	if _, err := c.do(ctx, OpGenerate, http.MethodPost, "/generate-animation",
		types.GenerateRequest{Description: description}, &out); err != nil {
		return "", err
	}
	return requireCode(OpGenerate, out)
}

// Fix asks the service to repair code that failed with message.
func (c *Client) Fix(ctx context.Context, brokenCode, message string) (string, error) {
	if err := utils.JoinErrors(utils.ValidateSource(brokenCode), utils.ValidateErrorMessage(message)); err != nil {
		return "", err
	}
	var out types.CodeResponse
	if _, err := c.do(ctx, OpFix, http.MethodPost, "/fix-animation",
		types.FixRequest{BrokenCode: brokenCode, ErrorMessage: message}, &out); err != nil {
		return "", err
	}
	return requireCode(OpFix, out)
}

// Save stores code and returns its id.
func (c *Client) Save(ctx context.Context, code, description string) (string, error) {
	if err := utils.ValidateSource(code); err != nil {
		return "", err
	}
	var out types.SaveResponse
	if _, err := c.do(ctx, OpSave, http.MethodPost, "/save-animation",
		types.SaveRequest{Code: code, Description: description}, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &RequestFailure{Op: OpSave, Reason: "response missing id"}
	}
	return out.ID, nil
}

// Get loads a stored program by id.
func (c *Client) Get(ctx context.Context, id string) (*types.Animation, error) {
	if err := utils.ValidateID(id); err != nil {
		return nil, err
	}
	var out types.Animation
	if _, err := c.do(ctx, OpGet, http.MethodGet, "/animation/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Code) == "" {
		return nil, &RequestFailure{Op: OpGet, Reason: "response missing code"}
	}
	if out.ID == "" {
		out.ID = id
	}
	return &out, nil
}

// Feed returns a randomly selected stored program, or nil when there is none.
func (c *Client) Feed(ctx context.Context) (*types.Animation, error) {
	var out types.Animation
	status, err := c.do(ctx, OpFeed, http.MethodGet, "/feed", nil, &out)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if status == http.StatusNoContent || out.ID == "" {
		return nil, nil
	}
	return &out, nil
}

// SaveMood records a viewer's mood for an animation.
func (c *Client) SaveMood(ctx context.Context, animationID string, mood types.Mood) (bool, error) {
	if err := utils.ValidateID(animationID); err != nil {
		return false, err
	}
	if _, err := types.ParseMood(string(mood)); err != nil {
		return false, &utils.ValidationError{Field: "mood", Message: err.Error()}
	}
	var out types.MoodResponse
	if _, err := c.do(ctx, OpMood, http.MethodPost, "/mood",
		types.MoodRequest{AnimationID: animationID, Mood: mood}, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

func requireCode(op string, out types.CodeResponse) (string, error) {
	if strings.TrimSpace(out.Code) == "" {
		reason := "response missing code"
		if out.Error != "" {
			reason = out.Error
		}
		return "", &RequestFailure{Op: op, Reason: reason}
	}
	return out.Code, nil
}
