// Package logger builds the structured slog.Logger used across the
// notification core and provides attribute helpers so that every component
// logs identities, topics and notification ids under the same keys.
//
// New takes functional options (format, level, static attributes, context
// extractors) and wraps the chosen slog handler in LogHandlerDecorator,
// which pulls request- or session-scoped values out of context.Context on
// every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(logger.EnvProduction, "notifyd"),
//	    logger.WithContextValue("session_id", sessionKey{}),
//	)
//	log.LogAttrs(ctx, slog.LevelWarn, "pull failed",
//	    logger.UserID(identity.ID),
//	    logger.Error(err),
//	)
//
// Error, UserID, Role and NotificationID return an empty slog.Attr for zero
// input, so callers never need a nil check before logging.
package logger
