// Package log provides slog loggers that never print session secrets.
//
// The SecureHandler wraps any slog.Handler and masks attribute values whose
// key names a secret (credential, session, cookie, token and similar) or
// whose value looks like one: a long hex session token, a bearer token or a
// "session=..." cookie pair. Cookie pairs embedded in longer strings, such
// as error messages, are masked in place.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//	logger.Info("registered", "identity", id, "credential", cred) // credential=***REDACTED***
package log
