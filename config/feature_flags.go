package config

import (
	"fmt"
	"strings"
	"sync"
)

// Feature flag names.
const (
	// FeatureLenientLookup lets the deadline engine pick the most
	// recently changed offer calendar when several match the same
	// reference and session, instead of skipping the computation.
	FeatureLenientLookup = "engine.lenient_lookup"

	// FeatureDeadlineSnapshots enables the Redis snapshot cache for
	// deadline listings.
	FeatureDeadlineSnapshots = "cache.deadline_snapshots"

	// FeatureEventAudit logs every published event at debug level.
	FeatureEventAudit = "bus.event_audit"
)

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Enabled     bool
	Description string
}

// FeatureFlags manages feature toggles with environment overrides.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// LoadFeatureFlags creates feature flags with defaults, then applies
// FEATURE_* environment overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features: make(map[string]*Feature),
	}

	ff.register(&Feature{
		Name:        FeatureLenientLookup,
		Enabled:     false,
		Description: "Resolve ambiguous offer calendar lookups by most recent change",
	})
	ff.register(&Feature{
		Name:        FeatureDeadlineSnapshots,
		Enabled:     true,
		Description: "Cache deadline listings in Redis",
	})
	ff.register(&Feature{
		Name:        FeatureEventAudit,
		Enabled:     false,
		Description: "Log every published domain event",
	})

	ff.loadFromEnvironment()

	return ff
}

func (ff *FeatureFlags) register(f *Feature) {
	ff.features[f.Name] = f
}

// loadFromEnvironment applies FEATURE_<NAME>=true/false overrides.
// Dots in the flag name become underscores: engine.lenient_lookup is
// overridden by FEATURE_ENGINE_LENIENT_LOOKUP.
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, f := range ff.features {
		envKey := featureNameToEnvKey(name)
		f.Enabled = getEnvBool(envKey, f.Enabled)
	}
}

func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	f, ok := ff.features[name]
	if !ok {
		return false
	}
	return f.Enabled
}

// Enable turns a feature on at runtime.
func (ff *FeatureFlags) Enable(name string) error {
	return ff.set(name, true)
}

// Disable turns a feature off at runtime.
func (ff *FeatureFlags) Disable(name string) error {
	return ff.set(name, false)
}

func (ff *FeatureFlags) set(name string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	f, ok := ff.features[name]
	if !ok {
		return fmt.Errorf("unknown feature: %s", name)
	}
	f.Enabled = enabled
	return nil
}

// GetAllFeatures returns a snapshot of all registered features.
func (ff *FeatureFlags) GetAllFeatures() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make([]Feature, 0, len(ff.features))
	for _, f := range ff.features {
		out = append(out, *f)
	}
	return out
}
