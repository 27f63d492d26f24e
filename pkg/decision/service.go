package decision

import (
	"context"
	"errors"
	"log/slog"

	"github.com/flagkit/flagkit/pkg/audience"
	"github.com/flagkit/flagkit/pkg/bucketing"
	"github.com/flagkit/flagkit/pkg/datafile"
	"github.com/flagkit/flagkit/pkg/logger"
	"github.com/flagkit/flagkit/pkg/profile"
)

// Service orchestrates experiment and feature decisions. It holds no
// configuration itself: every call takes the Project snapshot to decide
// against, so one Service serves any number of datafile revisions. The
// only side effects are reads and writes through the injected override
// and profile collaborators.
type Service struct {
	log       *slog.Logger
	overrides Overrides
	profiles  profile.Store
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithOverrides wires the runtime forced-variation store.
func WithOverrides(o Overrides) Option {
	return func(s *Service) { s.overrides = o }
}

// WithProfiles wires the sticky-bucketing store. Without it every call
// buckets fresh.
func WithProfiles(store profile.Store) Option {
	return func(s *Service) { s.profiles = store }
}

// New creates a decision service.
func New(opts ...Option) *Service {
	s := &Service{log: logger.Noop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Experiment decides which variation of an experiment the user falls
// into. A (nil, nil) return means no decision: the user is excluded or
// the reference does not resolve; both degrade gracefully per the
// error-handling contract.
func (s *Service) Experiment(ctx context.Context, project *datafile.Project, experimentKey string, user User) (*Decision, error) {
	if project == nil {
		return nil, ErrNilProject
	}
	exp, ok := project.Experiment(experimentKey)
	if !ok {
		s.log.Debug("experiment not found", logger.ExperimentKey(experimentKey), logger.UserID(user.ID))
		return nil, nil
	}
	return s.decideExperiment(ctx, project, exp, user), nil
}

// decideExperiment runs the decision ladder in strict order: runtime
// override, datafile whitelist, status, mutual exclusion, audience,
// sticky profile, bucketing.
func (s *Service) decideExperiment(ctx context.Context, project *datafile.Project, exp *datafile.Experiment, user User) *Decision {
	// 1. Runtime-set forced variation bypasses everything below.
	if s.overrides != nil {
		if variationKey, ok := s.overrides.Get(exp.Key, user.ID); ok {
			if v, ok := exp.VariationByKey(variationKey); ok {
				s.log.Debug("forced variation override",
					logger.ExperimentKey(exp.Key), logger.UserID(user.ID), logger.VariationKey(variationKey))
				return &Decision{Variation: v, Experiment: exp, Source: SourceExperiment}
			}
			s.log.Warn("forced variation references unknown variation",
				logger.ExperimentKey(exp.Key), logger.UserID(user.ID), logger.VariationKey(variationKey))
		}
	}

	// 2. Datafile whitelist, same bypass semantics.
	if variationKey, ok := exp.Forced[user.ID]; ok {
		if v, ok := exp.VariationByKey(variationKey); ok {
			s.log.Debug("whitelisted variation",
				logger.ExperimentKey(exp.Key), logger.UserID(user.ID), logger.VariationKey(variationKey))
			return &Decision{Variation: v, Experiment: exp, Source: SourceExperiment}
		}
		s.log.Warn("whitelist references unknown variation",
			logger.ExperimentKey(exp.Key), logger.UserID(user.ID), logger.VariationKey(variationKey))
	}

	if !exp.Running() {
		s.log.Debug("experiment not running",
			logger.ExperimentKey(exp.Key), slog.String("status", string(exp.Status)))
		return nil
	}

	// 3. Mutual exclusion: in a random group the user must land on this
	// experiment in the group's own allocation.
	if exp.GroupID != "" {
		if group, ok := project.Group(exp.GroupID); ok && group.Policy == datafile.PolicyRandom {
			value := bucketing.Value(user.BucketingKey(), group.ID)
			entityID, ok := bucketing.Allocate(value, group.Traffic)
			if !ok || entityID != exp.ID {
				s.log.Debug("user excluded by mutual exclusion group",
					logger.ExperimentKey(exp.Key), logger.UserID(user.ID),
					slog.String("group_id", group.ID), slog.Int("bucket_value", value))
				return nil
			}
		}
	}

	// 4. Audience gate; Unknown means not matched.
	if result := audience.Evaluate(exp.Audience, user.Attributes); result != audience.True {
		s.log.Debug("user not in experiment audience",
			logger.ExperimentKey(exp.Key), logger.UserID(user.ID),
			slog.String("result", result.String()))
		return nil
	}

	// 5. Sticky profile: an existing assignment wins over fresh
	// bucketing as long as the variation still exists.
	if s.profiles != nil && user.ID != "" {
		if p, err := s.profiles.Lookup(ctx, user.ID); err == nil {
			if variationID, ok := p.Variation(exp.ID); ok {
				if v, ok := exp.Variation(variationID); ok {
					s.log.Debug("sticky variation from profile",
						logger.ExperimentKey(exp.Key), logger.UserID(user.ID), logger.VariationKey(v.Key))
					return &Decision{Variation: v, Experiment: exp, Source: SourceExperiment}
				}
				s.log.Debug("stored variation no longer exists, rebucketing",
					logger.ExperimentKey(exp.Key), logger.UserID(user.ID))
			}
		} else if !errors.Is(err, profile.ErrNotFound) {
			s.log.Warn("profile lookup failed, proceeding without stickiness",
				logger.UserID(user.ID), logger.Error(err))
		}
	}

	// 6. Fresh bucketing against the experiment's own allocation.
	value := bucketing.Value(user.BucketingKey(), exp.ID)
	variationID, ok := bucketing.Allocate(value, exp.Traffic)
	if !ok {
		s.log.Debug("user in unallocated traffic",
			logger.ExperimentKey(exp.Key), logger.UserID(user.ID), slog.Int("bucket_value", value))
		return nil
	}
	v, ok := exp.Variation(variationID)
	if !ok {
		s.log.Warn("traffic allocation references unknown variation",
			logger.ExperimentKey(exp.Key), slog.String("variation_id", variationID))
		return nil
	}

	// 7. Persist the fresh assignment; failure never alters the decision.
	if s.profiles != nil && user.ID != "" {
		if err := s.profiles.Save(ctx, user.ID, exp.ID, v.ID); err != nil {
			s.log.Warn("profile save failed",
				logger.UserID(user.ID), logger.ExperimentKey(exp.Key), logger.Error(err))
		}
	}

	s.log.Debug("user bucketed into variation",
		logger.ExperimentKey(exp.Key), logger.UserID(user.ID),
		logger.VariationKey(v.Key), slog.Int("bucket_value", value))
	return &Decision{Variation: v, Experiment: exp, Source: SourceExperiment}
}

// Feature decides whether and how a feature applies to the user: first
// the flag's feature tests in declared order, then the rollout
// waterfall.
func (s *Service) Feature(ctx context.Context, project *datafile.Project, featureKey string, user User) (*Decision, error) {
	if project == nil {
		return nil, ErrNilProject
	}
	flag, ok := project.Feature(featureKey)
	if !ok {
		s.log.Debug("feature not found", logger.FeatureKey(featureKey), logger.UserID(user.ID))
		return nil, nil
	}

	for _, experimentID := range flag.ExperimentIDs {
		exp, ok := project.ExperimentByID(experimentID)
		if !ok {
			s.log.Warn("feature references unknown experiment",
				logger.FeatureKey(featureKey), slog.String("experiment_id", experimentID))
			continue
		}
		if d := s.decideExperiment(ctx, project, exp, user); d != nil {
			return d, nil
		}
	}

	return s.decideRollout(flag, project, user), nil
}

// decideRollout walks the rollout rules in order. A rule whose audience
// does not match is skipped; a matched rule owns the user — landing in
// its unallocated remainder excludes the user entirely rather than
// falling through to later rules.
func (s *Service) decideRollout(flag *datafile.FeatureFlag, project *datafile.Project, user User) *Decision {
	if flag.RolloutID == "" {
		return nil
	}
	rollout, ok := project.Rollout(flag.RolloutID)
	if !ok {
		s.log.Warn("feature references unknown rollout",
			logger.FeatureKey(flag.Key), slog.String("rollout_id", flag.RolloutID))
		return nil
	}

	for i, rule := range rollout.Rules {
		if result := audience.Evaluate(rule.Audience, user.Attributes); result != audience.True {
			if i == len(rollout.Rules)-1 {
				s.log.Debug("user not in catch-all rollout rule audience",
					logger.FeatureKey(flag.Key), logger.UserID(user.ID))
				return nil
			}
			continue
		}

		value := bucketing.Value(user.BucketingKey(), rule.ID)
		variationID, ok := bucketing.Allocate(value, rule.Traffic)
		if !ok {
			s.log.Debug("user excluded by rollout rule allocation",
				logger.FeatureKey(flag.Key), logger.UserID(user.ID),
				slog.String("rule_id", rule.ID), slog.Int("bucket_value", value))
			return nil
		}
		v, ok := rule.Variation(variationID)
		if !ok {
			s.log.Warn("rollout rule references unknown variation",
				logger.FeatureKey(flag.Key), slog.String("variation_id", variationID))
			return nil
		}
		return &Decision{Variation: v, Experiment: rule, Source: SourceRollout}
	}
	return nil
}
