/*
Package client talks to the animation service: generating and fixing
programs, saving and loading them, the random feed, moods and accounts.

Requests go through a token-bucket limiter (x/time/rate) and a circuit
breaker. Transport errors and 5xx responses are retried by
go-retryablehttp underneath resty. JSON is encoded with sonic.

Every failed call returns a *RequestFailure, which matches ErrRequestFailed.
Non-2xx responses read "API request failed with status N"; a 2xx response
without the expected field (code, id or token) is a failure as well.
Invalid input is rejected before any request with a *utils.ValidationError.

# Usage

	c := client.New(client.Config{BaseURL: cfg.API.BaseURL},
		client.WithMetrics(metrics),
		client.WithTokenSource(store.Token),
	)
	code, err := c.Generate(ctx, "a bouncing red ball")
*/
package client
