package types

// GenerateRequest asks for a new program from a description.
type GenerateRequest struct {
	Description string `json:"description" binding:"required"`
}

// FixRequest asks for a corrected program.
type FixRequest struct {
	BrokenCode   string `json:"broken_code" binding:"required"`
	ErrorMessage string `json:"error_message" binding:"required"`
}

// CodeResponse carries a generated or fixed program.
type CodeResponse struct {
	Code  string `json:"code"`
	Error string `json:"error,omitempty"`
}

// SaveRequest stores a program.
type SaveRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description,omitempty"`
}

// SaveResponse carries the id of a stored program.
type SaveResponse struct {
	ID string `json:"id"`
}

// MoodRequest records a mood for an animation.
type MoodRequest struct {
	AnimationID string `json:"animation_id" binding:"required"`
	Mood        Mood   `json:"mood" binding:"required"`
}

// MoodResponse acknowledges a mood.
type MoodResponse struct {
	Success bool `json:"success"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest opens a session.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PreviewRequest runs a program headlessly.
type PreviewRequest struct {
	Code   string `json:"code" binding:"required"`
	Kind   string `json:"kind,omitempty"`
	Frames int    `json:"frames,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ShareRequest saves a program, optionally linking a local run.
type ShareRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description,omitempty"`
	RunID       string `json:"run_id,omitempty"`
}

// WSMessage is a frame on the live preview stream.
type WSMessage struct {
	Type    string         `json:"type"`
	Code    string         `json:"code,omitempty"`
	Kind    string         `json:"kind,omitempty"`
	Width   int            `json:"width,omitempty"`
	Height  int            `json:"height,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}
