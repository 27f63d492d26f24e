package flagkit

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/flagkit/flagkit/pkg/datafile"
)

// FeatureVariableString returns the value of a string feature variable
// for the user. When the feature is off or the winning variation
// carries no override, the declared default applies.
func (c *Client) FeatureVariableString(ctx context.Context, featureKey, variableKey string, user User) (string, error) {
	raw, err := c.variableValue(ctx, featureKey, variableKey, datafile.VariableString, user)
	if err != nil {
		return "", err
	}
	return raw, nil
}

// FeatureVariableBool returns the value of a boolean feature variable
// for the user.
func (c *Client) FeatureVariableBool(ctx context.Context, featureKey, variableKey string, user User) (bool, error) {
	raw, err := c.variableValue(ctx, featureKey, variableKey, datafile.VariableBoolean, user)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Join(ErrInvalidVariableValue, fmt.Errorf("variable %q: %w", variableKey, err))
	}
	return v, nil
}

// FeatureVariableInt returns the value of an integer feature variable
// for the user.
func (c *Client) FeatureVariableInt(ctx context.Context, featureKey, variableKey string, user User) (int, error) {
	raw, err := c.variableValue(ctx, featureKey, variableKey, datafile.VariableInteger, user)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Join(ErrInvalidVariableValue, fmt.Errorf("variable %q: %w", variableKey, err))
	}
	return v, nil
}

// FeatureVariableFloat returns the value of a double feature variable
// for the user.
func (c *Client) FeatureVariableFloat(ctx context.Context, featureKey, variableKey string, user User) (float64, error) {
	raw, err := c.variableValue(ctx, featureKey, variableKey, datafile.VariableDouble, user)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Join(ErrInvalidVariableValue, fmt.Errorf("variable %q: %w", variableKey, err))
	}
	return v, nil
}

// variableValue resolves the serialized value of a feature variable:
// the winning variation's override when the feature is enabled for the
// user, the declared default otherwise.
func (c *Client) variableValue(ctx context.Context, featureKey, variableKey string, want datafile.VariableType, user User) (string, error) {
	project := c.project.Load()
	flag, ok := project.Feature(featureKey)
	if !ok {
		return "", errors.Join(ErrFeatureNotFound, fmt.Errorf("feature %q", featureKey))
	}
	variable, ok := flag.Variable(variableKey)
	if !ok {
		return "", errors.Join(ErrVariableNotFound, fmt.Errorf("feature %q has no variable %q", featureKey, variableKey))
	}
	if variable.Type != want {
		return "", errors.Join(ErrVariableTypeMismatch,
			fmt.Errorf("variable %q is %s, not %s", variableKey, variable.Type, want))
	}

	d, err := c.decider.Feature(ctx, project, featureKey, user.decisionUser())
	if err != nil {
		return "", err
	}
	if d != nil && d.Enabled() {
		if raw, ok := d.Variation.VariableValue(variable.ID); ok {
			return raw, nil
		}
	}
	return variable.DefaultValue, nil
}
