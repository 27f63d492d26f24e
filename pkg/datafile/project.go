package datafile

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flagkit/flagkit/pkg/audience"
	"github.com/flagkit/flagkit/pkg/bucketing"
)

// Project is the immutable, indexed view over one datafile revision.
// It is built once by Parse and safe for concurrent use without
// locking; a configuration reload replaces the whole Project rather
// than mutating it.
type Project struct {
	version   string
	revision  string
	projectID string
	accountID string

	experimentsByKey map[string]*Experiment
	experimentsByID  map[string]*Experiment
	featuresByKey    map[string]*FeatureFlag
	features         []*FeatureFlag
	groupsByID       map[string]*Group
	audiencesByID    map[string]*Audience
	rolloutsByID     map[string]*Rollout
}

// Parse decodes a JSON datafile payload and builds the indexed view.
// Condition trees and allocation tables are parsed here, exactly once;
// decision calls never see raw JSON.
func Parse(payload []byte) (*Project, error) {
	var raw rawDatafile
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Join(ErrMalformedDatafile, err)
	}

	p := &Project{
		version:          raw.Version,
		revision:         raw.Revision,
		projectID:        raw.ProjectID,
		accountID:        raw.AccountID,
		experimentsByKey: make(map[string]*Experiment),
		experimentsByID:  make(map[string]*Experiment),
		featuresByKey:    make(map[string]*FeatureFlag, len(raw.FeatureFlags)),
		groupsByID:       make(map[string]*Group, len(raw.Groups)),
		audiencesByID:    make(map[string]*Audience, len(raw.Audiences)),
		rolloutsByID:     make(map[string]*Rollout, len(raw.Rollouts)),
	}

	for _, ra := range raw.Audiences {
		cond, err := audience.ParseConditions(ra.Conditions)
		if err != nil {
			return nil, errors.Join(ErrMalformedDatafile,
				fmt.Errorf("audience %q: %w", ra.ID, err))
		}
		p.audiencesByID[ra.ID] = &Audience{ID: ra.ID, Name: ra.Name, Conditions: cond}
	}

	for _, rg := range raw.Groups {
		traffic, err := buildTraffic(rg.TrafficAllocation)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", rg.ID, err)
		}
		group := &Group{
			ID:            rg.ID,
			Policy:        GroupPolicy(rg.Policy),
			Traffic:       traffic,
			ExperimentIDs: make([]string, 0, len(rg.Experiments)),
		}
		for _, re := range rg.Experiments {
			exp, err := p.buildExperiment(re, rg.ID)
			if err != nil {
				return nil, err
			}
			group.ExperimentIDs = append(group.ExperimentIDs, exp.ID)
			p.indexExperiment(exp)
		}
		p.groupsByID[rg.ID] = group
	}

	for _, re := range raw.Experiments {
		exp, err := p.buildExperiment(re, "")
		if err != nil {
			return nil, err
		}
		p.indexExperiment(exp)
	}

	for _, rr := range raw.Rollouts {
		rollout := &Rollout{ID: rr.ID, Rules: make([]*Experiment, 0, len(rr.Experiments))}
		for _, re := range rr.Experiments {
			rule, err := p.buildExperiment(re, "")
			if err != nil {
				return nil, fmt.Errorf("rollout %q: %w", rr.ID, err)
			}
			rollout.Rules = append(rollout.Rules, rule)
		}
		p.rolloutsByID[rr.ID] = rollout
	}

	for _, rf := range raw.FeatureFlags {
		flag := &FeatureFlag{
			ID:             rf.ID,
			Key:            rf.Key,
			RolloutID:      rf.RolloutID,
			ExperimentIDs:  append([]string(nil), rf.ExperimentIDs...),
			Variables:      make([]Variable, 0, len(rf.Variables)),
			variablesByKey: make(map[string]int, len(rf.Variables)),
		}
		for _, rv := range rf.Variables {
			flag.variablesByKey[rv.Key] = len(flag.Variables)
			flag.Variables = append(flag.Variables, Variable{
				ID:           rv.ID,
				Key:          rv.Key,
				Type:         VariableType(rv.Type),
				DefaultValue: rv.DefaultValue,
			})
		}
		p.featuresByKey[rf.Key] = flag
		p.features = append(p.features, flag)
	}

	return p, nil
}

// buildExperiment converts one wire experiment (top-level, group member
// or rollout rule) into its typed form. Audience ids resolve through
// the already-parsed audience index; multiple ids combine with Or.
func (p *Project) buildExperiment(re rawExperiment, groupID string) (*Experiment, error) {
	traffic, err := buildTraffic(re.TrafficAllocation)
	if err != nil {
		return nil, fmt.Errorf("experiment %q: %w", re.Key, err)
	}

	var cond audience.Condition
	switch len(re.AudienceIDs) {
	case 0:
	case 1:
		aud, ok := p.audiencesByID[re.AudienceIDs[0]]
		if !ok {
			return nil, errors.Join(ErrMalformedDatafile,
				fmt.Errorf("experiment %q references unknown audience %q", re.Key, re.AudienceIDs[0]))
		}
		cond = aud.Conditions
	default:
		operands := make([]audience.Condition, 0, len(re.AudienceIDs))
		for _, id := range re.AudienceIDs {
			aud, ok := p.audiencesByID[id]
			if !ok {
				return nil, errors.Join(ErrMalformedDatafile,
					fmt.Errorf("experiment %q references unknown audience %q", re.Key, id))
			}
			operands = append(operands, aud.Conditions)
		}
		cond = audience.Or{Operands: operands}
	}

	exp := &Experiment{
		ID:              re.ID,
		Key:             re.Key,
		Status:          ExperimentStatus(re.Status),
		GroupID:         groupID,
		Audience:        cond,
		Traffic:         traffic,
		Variations:      make([]Variation, 0, len(re.Variations)),
		variationsByID:  make(map[string]int, len(re.Variations)),
		variationsByKey: make(map[string]int, len(re.Variations)),
	}
	if len(re.ForcedVariations) > 0 {
		exp.Forced = make(map[string]string, len(re.ForcedVariations))
		for userID, variationKey := range re.ForcedVariations {
			exp.Forced[userID] = variationKey
		}
	}

	for _, rv := range re.Variations {
		variation := Variation{
			ID:             rv.ID,
			Key:            rv.Key,
			FeatureEnabled: rv.FeatureEnabled,
		}
		if len(rv.Variables) > 0 {
			variation.variables = make(map[string]string, len(rv.Variables))
			for _, vv := range rv.Variables {
				variation.variables[vv.ID] = vv.Value
			}
		}
		exp.variationsByID[rv.ID] = len(exp.Variations)
		exp.variationsByKey[rv.Key] = len(exp.Variations)
		exp.Variations = append(exp.Variations, variation)
	}

	return exp, nil
}

func (p *Project) indexExperiment(exp *Experiment) {
	p.experimentsByKey[exp.Key] = exp
	p.experimentsByID[exp.ID] = exp
}

// buildTraffic validates the allocation invariants: ascending ends,
// never past the bucket space.
func buildTraffic(raw []rawRange) ([]bucketing.Range, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ranges := make([]bucketing.Range, 0, len(raw))
	previous := 0
	for _, rr := range raw {
		if rr.EndOfRange < previous || rr.EndOfRange > bucketing.MaxBucketValue {
			return nil, errors.Join(ErrMalformedDatafile,
				fmt.Errorf("traffic allocation end %d out of order or beyond %d",
					rr.EndOfRange, bucketing.MaxBucketValue))
		}
		previous = rr.EndOfRange
		ranges = append(ranges, bucketing.Range{EntityID: rr.EntityID, EndOfRange: rr.EndOfRange})
	}
	return ranges, nil
}

// Version returns the datafile schema version.
func (p *Project) Version() string { return p.version }

// Revision returns the datafile revision, useful for logging which
// snapshot produced a decision.
func (p *Project) Revision() string { return p.revision }

// ProjectID returns the project identifier.
func (p *Project) ProjectID() string { return p.projectID }

// AccountID returns the account identifier.
func (p *Project) AccountID() string { return p.accountID }

// Experiment looks up an experiment by key.
func (p *Project) Experiment(key string) (*Experiment, bool) {
	e, ok := p.experimentsByKey[key]
	return e, ok
}

// ExperimentByID looks up an experiment by id.
func (p *Project) ExperimentByID(id string) (*Experiment, bool) {
	e, ok := p.experimentsByID[id]
	return e, ok
}

// Feature looks up a feature flag by key.
func (p *Project) Feature(key string) (*FeatureFlag, bool) {
	f, ok := p.featuresByKey[key]
	return f, ok
}

// Features returns all feature flags in datafile order.
func (p *Project) Features() []*FeatureFlag {
	return append([]*FeatureFlag(nil), p.features...)
}

// Group looks up a mutual exclusion group by id.
func (p *Project) Group(id string) (*Group, bool) {
	g, ok := p.groupsByID[id]
	return g, ok
}

// Audience looks up an audience by id.
func (p *Project) Audience(id string) (*Audience, bool) {
	a, ok := p.audiencesByID[id]
	return a, ok
}

// Rollout looks up a rollout by id.
func (p *Project) Rollout(id string) (*Rollout, bool) {
	r, ok := p.rolloutsByID[id]
	return r, ok
}
