package datafile

import (
	"github.com/flagkit/flagkit/pkg/audience"
	"github.com/flagkit/flagkit/pkg/bucketing"
)

// ExperimentStatus mirrors the datafile status strings. Only Running
// experiments are eligible for bucketing.
type ExperimentStatus string

const (
	StatusRunning    ExperimentStatus = "Running"
	StatusLaunched   ExperimentStatus = "Launched"
	StatusPaused     ExperimentStatus = "Paused"
	StatusNotStarted ExperimentStatus = "Not started"
	StatusArchived   ExperimentStatus = "Archived"
)

// Experiment is an A/B experiment or, inside a Rollout, a targeting
// rule. Instances are immutable after Parse; treat all fields and
// returned values as read-only.
type Experiment struct {
	ID     string
	Key    string
	Status ExperimentStatus

	// GroupID is set when the experiment belongs to a mutual exclusion
	// group, empty otherwise.
	GroupID string

	// Audience is the parsed condition tree gating the experiment; nil
	// means no restriction.
	Audience audience.Condition

	// Traffic partitions the bucket space among variation ids.
	Traffic []bucketing.Range

	// Variations in datafile order.
	Variations []Variation

	// Forced is the datafile-embedded whitelist: user id to variation key.
	Forced map[string]string

	variationsByID  map[string]int
	variationsByKey map[string]int
}

// Running reports whether the experiment is eligible for bucketing.
func (e *Experiment) Running() bool { return e.Status == StatusRunning }

// Variation looks up a variation by id.
func (e *Experiment) Variation(id string) (*Variation, bool) {
	i, ok := e.variationsByID[id]
	if !ok {
		return nil, false
	}
	return &e.Variations[i], true
}

// VariationByKey looks up a variation by key.
func (e *Experiment) VariationByKey(key string) (*Variation, bool) {
	i, ok := e.variationsByKey[key]
	if !ok {
		return nil, false
	}
	return &e.Variations[i], true
}

// Variation is one arm of an experiment.
type Variation struct {
	ID  string
	Key string

	// FeatureEnabled reports whether the owning feature is on for users
	// assigned to this variation (feature tests only).
	FeatureEnabled bool

	// variables maps variable id to the override value serialized as a
	// string, the way the datafile carries it.
	variables map[string]string
}

// VariableValue returns the serialized override for a variable id.
func (v *Variation) VariableValue(variableID string) (string, bool) {
	value, ok := v.variables[variableID]
	return value, ok
}

// GroupPolicy selects how a group's member experiments interact.
type GroupPolicy string

const (
	// PolicyRandom buckets each user into at most one member experiment.
	PolicyRandom GroupPolicy = "random"
	// PolicyOverlapping lets users participate in any number of members.
	PolicyOverlapping GroupPolicy = "overlapping"
)

// Group is a set of experiments sharing traffic, optionally mutually
// exclusive.
type Group struct {
	ID            string
	Policy        GroupPolicy
	Traffic       []bucketing.Range
	ExperimentIDs []string
}

// Audience pairs an id with its parsed condition tree.
type Audience struct {
	ID         string
	Name       string
	Conditions audience.Condition
}

// VariableType enumerates feature variable types as spelled in the
// datafile.
type VariableType string

const (
	VariableString  VariableType = "string"
	VariableBoolean VariableType = "boolean"
	VariableInteger VariableType = "integer"
	VariableDouble  VariableType = "double"
)

// Variable is a feature variable declaration.
type Variable struct {
	ID           string
	Key          string
	Type         VariableType
	DefaultValue string
}

// FeatureFlag ties experiments, a rollout and variable declarations to
// a feature key.
type FeatureFlag struct {
	ID            string
	Key           string
	RolloutID     string
	ExperimentIDs []string
	Variables     []Variable

	variablesByKey map[string]int
}

// Variable looks up a variable declaration by key.
func (f *FeatureFlag) Variable(key string) (*Variable, bool) {
	i, ok := f.variablesByKey[key]
	if !ok {
		return nil, false
	}
	return &f.Variables[i], true
}

// Rollout is an ordered list of targeting rules; by convention the last
// rule targets everyone.
type Rollout struct {
	ID    string
	Rules []*Experiment
}
