package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id string) slog.Attr { return slog.String("user_id", id) }

// ExperimentKey records an experiment key under the key "experiment_key".
func ExperimentKey(key string) slog.Attr { return slog.String("experiment_key", key) }

// FeatureKey records a feature flag key under the key "feature_key".
func FeatureKey(key string) slog.Attr { return slog.String("feature_key", key) }

// VariationKey records a variation key under the key "variation_key".
func VariationKey(key string) slog.Attr { return slog.String("variation_key", key) }

// Revision records the datafile revision under the key "revision".
func Revision(rev string) slog.Attr { return slog.String("revision", rev) }
