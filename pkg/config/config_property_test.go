package config

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_AgentIntervalsFallBackToDefaults verifies that non-positive
// agent tuning values always fall back to usable defaults, so a sparse or
// malformed agent.yaml never produces a zero-period ticker or an unbounded
// trace semaphore.
func TestProperty_AgentIntervalsFallBackToDefaults(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("non-positive intervals fall back to defaults", prop.ForAll(
		func(scan, poll, concurrency int) bool {
			cfg := &Config{
				Agent: AgentConfig{
					ScanInterval:        scan,
					PollInterval:        poll,
					MaxConcurrentTraces: concurrency,
				},
			}
			cfg.applyDefaults()
			return cfg.Agent.ScanInterval == 5 &&
				cfg.Agent.PollInterval == 5 &&
				cfg.Agent.MaxConcurrentTraces == 4
		},
		gen.IntRange(-1000, 0),
		gen.IntRange(-1000, 0),
		gen.IntRange(-1000, 0),
	))

	properties.Property("positive values are preserved", prop.ForAll(
		func(scan, poll, concurrency, window int) bool {
			cfg := &Config{
				Agent: AgentConfig{
					ScanInterval:        scan,
					PollInterval:        poll,
					MaxConcurrentTraces: concurrency,
				},
				Registry: RegistryConfig{LivenessWindow: window},
			}
			cfg.applyDefaults()
			return cfg.Agent.ScanInterval == scan &&
				cfg.Agent.PollInterval == poll &&
				cfg.Agent.MaxConcurrentTraces == concurrency &&
				cfg.Registry.LivenessWindow == window
		},
		gen.IntRange(1, 300),
		gen.IntRange(1, 300),
		gen.IntRange(1, 64),
		gen.IntRange(1, 600),
	))

	properties.Property("applying defaults is idempotent", prop.ForAll(
		func(scan, poll int) bool {
			cfg := &Config{Agent: AgentConfig{ScanInterval: scan, PollInterval: poll}}
			cfg.applyDefaults()
			first := cfg.Agent
			cfg.applyDefaults()
			return cfg.Agent == first
		},
		gen.IntRange(-100, 100),
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}
