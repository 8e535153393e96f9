// Package resilience groups the fault-tolerance helpers used around external
// calls: circuit breakers for the followed-artists listing, notification channels and the
// delivery database, and retry with exponential backoff and jitter.
//
//	cb := circuitbreaker.New(circuitbreaker.CatalogAPIConfig())
//	result, err := cb.Execute(func() (any, error) {
//	    return client.Do(req)
//	})
//
//	err := retry.WithBackoff(ctx, retry.TelegramConfig(), func() error {
//	    return send(ctx)
//	})
package resilience
