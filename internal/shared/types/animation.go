package types

import "fmt"

// Animation is a stored program as the animation service returns it.
type Animation struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// Mood is a viewer's reaction to an animation.
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodSad      Mood = "sad"
	MoodExcited  Mood = "excited"
	MoodCalm     Mood = "calm"
	MoodConfused Mood = "confused"
	MoodBored    Mood = "bored"
)

// Moods lists every accepted mood in display order.
var Moods = []Mood{MoodHappy, MoodSad, MoodExcited, MoodCalm, MoodConfused, MoodBored}

// ParseMood returns the Mood named s.
func ParseMood(s string) (Mood, error) {
	for _, m := range Moods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mood %q", s)
}

// User is an account as the animation service returns it.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResult is what register and login return.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
