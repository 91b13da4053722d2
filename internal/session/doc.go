// Package session keeps the logged-in user's bearer token and user record,
// persisted as YAML between CLI invocations.
package session
