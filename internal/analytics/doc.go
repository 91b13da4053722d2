// Package analytics records product events such as animation_created or
// mood_submitted. Tracking is fire-and-forget: Track never blocks, and a
// slow or failing sink cannot affect the caller.
package analytics
