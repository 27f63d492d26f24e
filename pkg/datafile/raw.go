package datafile

import "encoding/json"

// Wire-format structs. These exist only for decoding; everything the
// rest of the SDK touches is the typed, indexed form built by Parse.

type rawDatafile struct {
	Version      string           `json:"version"`
	Revision     string           `json:"revision"`
	ProjectID    string           `json:"projectId"`
	AccountID    string           `json:"accountId"`
	Experiments  []rawExperiment  `json:"experiments"`
	Groups       []rawGroup       `json:"groups"`
	Audiences    []rawAudience    `json:"audiences"`
	FeatureFlags []rawFeatureFlag `json:"featureFlags"`
	Rollouts     []rawRollout     `json:"rollouts"`
}

type rawExperiment struct {
	ID                string            `json:"id"`
	Key               string            `json:"key"`
	Status            string            `json:"status"`
	AudienceIDs       []string          `json:"audienceIds"`
	Variations        []rawVariation    `json:"variations"`
	TrafficAllocation []rawRange        `json:"trafficAllocation"`
	ForcedVariations  map[string]string `json:"forcedVariations"`
}

type rawVariation struct {
	ID             string             `json:"id"`
	Key            string             `json:"key"`
	FeatureEnabled bool               `json:"featureEnabled"`
	Variables      []rawVariableValue `json:"variables"`
}

type rawVariableValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type rawRange struct {
	EntityID   string `json:"entityId"`
	EndOfRange int    `json:"endOfRange"`
}

type rawGroup struct {
	ID                string          `json:"id"`
	Policy            string          `json:"policy"`
	TrafficAllocation []rawRange      `json:"trafficAllocation"`
	Experiments       []rawExperiment `json:"experiments"`
}

type rawAudience struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Conditions json.RawMessage `json:"conditions"`
}

type rawFeatureFlag struct {
	ID            string        `json:"id"`
	Key           string        `json:"key"`
	RolloutID     string        `json:"rolloutId"`
	ExperimentIDs []string      `json:"experimentIds"`
	Variables     []rawVariable `json:"variables"`
}

type rawVariable struct {
	ID           string `json:"id"`
	Key          string `json:"key"`
	Type         string `json:"type"`
	DefaultValue string `json:"defaultValue"`
}

type rawRollout struct {
	ID          string          `json:"id"`
	Experiments []rawExperiment `json:"experiments"`
}
