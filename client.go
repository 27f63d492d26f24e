package flagkit

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/flagkit/flagkit/pkg/audience"
	"github.com/flagkit/flagkit/pkg/datafile"
	"github.com/flagkit/flagkit/pkg/decision"
	"github.com/flagkit/flagkit/pkg/logger"
	"github.com/flagkit/flagkit/pkg/notification"
	"github.com/flagkit/flagkit/pkg/profile"
)

// User identifies who a decision is for. Attributes feed audience
// evaluation; BucketingID, when set, replaces ID as the hashing input
// so related identities can share assignments.
type User struct {
	ID          string
	Attributes  map[string]any
	BucketingID string
}

func (u User) decisionUser() decision.User {
	return decision.User{
		ID:          u.ID,
		Attributes:  audience.AttributesOf(u.Attributes),
		BucketingID: u.BucketingID,
	}
}

// Client is the top-level decision facade. It holds the current
// datafile snapshot behind an atomic pointer, so decide calls never
// block on a concurrent UpdateDatafile and always see one consistent
// revision end to end.
type Client struct {
	log           *slog.Logger
	project       atomic.Pointer[datafile.Project]
	decider       *decision.Service
	overrides     *decision.MapOverrides
	notifications *notification.Center
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	log      *slog.Logger
	profiles profile.Store
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(c *clientConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithProfileStore enables sticky bucketing backed by the given store.
func WithProfileStore(store profile.Store) Option {
	return func(c *clientConfig) { c.profiles = store }
}

// New creates a Client from a raw datafile payload (JSON or YAML).
func New(payload []byte, opts ...Option) (*Client, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyDatafile
	}
	project, err := datafile.Parse(payload)
	if err != nil {
		return nil, err
	}
	return newClient(project, opts), nil
}

// NewFromFile creates a Client from a datafile on disk; the format is
// picked by extension.
func NewFromFile(path string, opts ...Option) (*Client, error) {
	project, err := datafile.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return newClient(project, opts), nil
}

func newClient(project *datafile.Project, opts []Option) *Client {
	cfg := &clientConfig{log: logger.Noop()}
	for _, opt := range opts {
		opt(cfg)
	}

	overrides := decision.NewMapOverrides()
	deciderOpts := []decision.Option{
		decision.WithLogger(cfg.log),
		decision.WithOverrides(overrides),
	}
	if cfg.profiles != nil {
		deciderOpts = append(deciderOpts, decision.WithProfiles(cfg.profiles))
	}

	c := &Client{
		log:           cfg.log,
		decider:       decision.New(deciderOpts...),
		overrides:     overrides,
		notifications: notification.NewCenter(),
	}
	c.publish(project)
	return c
}

// UpdateDatafile parses the payload and atomically replaces the active
// snapshot. On parse failure the previous revision stays active.
func (c *Client) UpdateDatafile(payload []byte) error {
	project, err := datafile.Parse(payload)
	if err != nil {
		return err
	}
	c.publish(project)
	return nil
}

// UpdateFromFile reloads the snapshot from a datafile on disk.
func (c *Client) UpdateFromFile(path string) error {
	project, err := datafile.LoadFile(path)
	if err != nil {
		return err
	}
	c.publish(project)
	return nil
}

func (c *Client) publish(project *datafile.Project) {
	c.project.Store(project)
	c.log.Info("datafile revision active",
		logger.Revision(project.Revision()),
		slog.String("project_id", project.ProjectID()))
}

// Snapshot returns the currently active configuration. The returned
// Project is immutable and stays valid after later updates.
func (c *Client) Snapshot() *datafile.Project {
	return c.project.Load()
}

// ExperimentVariation decides which variation of an experiment the user
// falls into and returns its key. An empty key with a nil error means
// the user is excluded.
func (c *Client) ExperimentVariation(ctx context.Context, experimentKey string, user User) (string, error) {
	project := c.project.Load()
	d, err := c.decider.Experiment(ctx, project, experimentKey, user.decisionUser())
	if err != nil {
		return "", err
	}

	event := notification.DecisionEvent{
		Type:       notification.DecisionTypeExperiment,
		Key:        experimentKey,
		UserID:     user.ID,
		Attributes: user.Attributes,
	}
	if d != nil {
		event.VariationKey = d.Variation.Key
		event.Enabled = d.Enabled()
	}
	c.notifications.Dispatch(event)

	if d == nil {
		return "", nil
	}
	return d.Variation.Key, nil
}

// IsFeatureEnabled reports whether the feature is on for the user.
func (c *Client) IsFeatureEnabled(ctx context.Context, featureKey string, user User) (bool, error) {
	d, err := c.decideFeature(ctx, featureKey, user, true)
	if err != nil {
		return false, err
	}
	return d != nil && d.Enabled(), nil
}

// EnabledFeatures returns the keys of every feature enabled for the
// user, in the datafile's declared order. It dispatches no decision
// events.
func (c *Client) EnabledFeatures(ctx context.Context, user User) ([]string, error) {
	project := c.project.Load()
	du := user.decisionUser()

	var keys []string
	for _, flag := range project.Features() {
		d, err := c.decider.Feature(ctx, project, flag.Key, du)
		if err != nil {
			return nil, err
		}
		if d != nil && d.Enabled() {
			keys = append(keys, flag.Key)
		}
	}
	return keys, nil
}

func (c *Client) decideFeature(ctx context.Context, featureKey string, user User, notify bool) (*decision.Decision, error) {
	project := c.project.Load()
	d, err := c.decider.Feature(ctx, project, featureKey, user.decisionUser())
	if err != nil {
		return nil, err
	}

	if notify {
		event := notification.DecisionEvent{
			Type:       notification.DecisionTypeFeature,
			Key:        featureKey,
			UserID:     user.ID,
			Attributes: user.Attributes,
		}
		if d != nil {
			event.VariationKey = d.Variation.Key
			event.Enabled = d.Enabled()
		}
		c.notifications.Dispatch(event)
	}
	return d, nil
}

// SetForcedVariation forces a variation for the experiment/user pair.
// Both keys are validated against the current snapshot so typos surface
// immediately rather than as silently ignored overrides.
func (c *Client) SetForcedVariation(experimentKey, userID, variationKey string) error {
	project := c.project.Load()
	exp, ok := project.Experiment(experimentKey)
	if !ok {
		return ErrExperimentNotFound
	}
	if _, ok := exp.VariationByKey(variationKey); !ok {
		return ErrVariationNotFound
	}
	c.overrides.Set(experimentKey, userID, variationKey)
	return nil
}

// ForcedVariation returns the forced variation key for the pair, if any.
func (c *Client) ForcedVariation(experimentKey, userID string) (string, bool) {
	return c.overrides.Get(experimentKey, userID)
}

// RemoveForcedVariation clears the forced variation for the pair.
func (c *Client) RemoveForcedVariation(experimentKey, userID string) {
	c.overrides.Remove(experimentKey, userID)
}

// OnDecision subscribes a handler to decision events and returns its
// subscription id.
func (c *Client) OnDecision(h notification.Handler) string {
	return c.notifications.Subscribe(h)
}

// RemoveListener unsubscribes a decision handler by id.
func (c *Client) RemoveListener(id string) bool {
	return c.notifications.Unsubscribe(id)
}
