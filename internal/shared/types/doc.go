// Package types provides the data structures shared by the animation service
// client, the HTTP API and the CLI.
//
// Core Types:
//   - Animation: A stored program with its id and description
//   - User, AuthResult: Account records returned by register and login
//   - Mood: The fixed set of reactions a viewer can submit
//
// Request Types:
//   - GenerateRequest, FixRequest, SaveRequest, MoodRequest
//   - RegisterRequest, LoginRequest
//   - PreviewRequest: Headless run of a program
//   - WSMessage: Live preview stream frames
package types
