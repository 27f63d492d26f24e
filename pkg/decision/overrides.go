package decision

import "sync"

// Overrides is the runtime forced-variation capability. The facade owns
// mutation; the decision service only reads. Implementations must be
// safe for concurrent use.
type Overrides interface {
	// Get returns the forced variation key for the pair, if any.
	Get(experimentKey, userID string) (string, bool)

	// Set forces a variation key for the pair, replacing any previous one.
	Set(experimentKey, userID, variationKey string)

	// Remove clears the forced variation for the pair.
	Remove(experimentKey, userID string)
}

type overrideKey struct {
	experimentKey string
	userID        string
}

// MapOverrides is the in-memory Overrides implementation.
type MapOverrides struct {
	mu sync.RWMutex
	m  map[overrideKey]string
}

// NewMapOverrides creates an empty override store.
func NewMapOverrides() *MapOverrides {
	return &MapOverrides{m: make(map[overrideKey]string)}
}

func (o *MapOverrides) Get(experimentKey, userID string) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	variationKey, ok := o.m[overrideKey{experimentKey, userID}]
	return variationKey, ok
}

func (o *MapOverrides) Set(experimentKey, userID, variationKey string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.m[overrideKey{experimentKey, userID}] = variationKey
}

func (o *MapOverrides) Remove(experimentKey, userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.m, overrideKey{experimentKey, userID})
}
