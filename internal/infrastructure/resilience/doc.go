/*
Package resilience guards calls to the animation service with a circuit
breaker.

While closed, every call goes through and Trip decides after each failure
whether to open. An open breaker rejects calls with ErrCircuitOpen until
Cooldown passes, then half-opens and lets Probes calls through; that many
successes close it again, one failure reopens it. IsFailure keeps caller
mistakes such as a 4xx answer or a malformed body from counting against
the service.

	breaker := resilience.New("animation-api", resilience.Settings{
		Probes:   2,
		Cooldown: 30 * time.Second,
		Trip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	code, err := resilience.Call(ctx, breaker, func(ctx context.Context) (string, error) {
		return api.Generate(ctx, description)
	})
*/
package resilience
