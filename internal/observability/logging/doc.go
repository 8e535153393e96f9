// Package logging configures log/slog for the service and carries loggers,
// run IDs and request IDs through context.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRunID(ctx, runID)
//	logging.FromContext(ctx).Info("scan started")
package logging
