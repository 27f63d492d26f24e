// Package logger creates configured log/slog loggers for the SDK and
// provides attribute helpers with consistent key names for the
// experimentation domain (user_id, experiment_key, feature_key, ...).
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithFormat(logger.FormatText),
//	)
//	log.Debug("bucketed", logger.UserID(id), logger.ExperimentKey(key))
//
// Noop returns a discarding logger for hosts that bring their own
// logging and for tests.
package logger
