package design

import "github.com/example/evo/internal/models"

// TreatmentStrategy mutates a copy of the control configuration toward
// the opportunity's target. Strategies must not touch the base map they
// receive beyond returning it.
type TreatmentStrategy func(base map[string]any, opp models.Opportunity) map[string]any

// controlConfigs is the per-area default configuration table used when
// no live configuration integration exists.
var controlConfigs = map[string]map[string]any{
	"prediction": {
		"window_size":          100,
		"smoothing_factor":     0.3,
		"confidence_threshold": 0.7,
	},
	"routing": {
		"strategy":        "round_robin",
		"max_retries":     3,
		"timeout_ms":      5000,
		"sticky_sessions": false,
	},
	"cost_optimizer": {
		"savings_target":    0.10,
		"batch_window_ms":   250,
		"cache_ttl_seconds": 300,
	},
}

// builtinStrategies returns the default treatment strategies keyed by
// area name.
func builtinStrategies() map[string]TreatmentStrategy {
	return map[string]TreatmentStrategy{
		// Smaller windows react faster to drift at the cost of noise.
		"prediction": func(base map[string]any, _ models.Opportunity) map[string]any {
			if w, ok := base["window_size"].(int); ok && w > 10 {
				base["window_size"] = w / 2
			}
			base["smoothing_factor"] = 0.5
			return base
		},
		"routing": func(base map[string]any, _ models.Opportunity) map[string]any {
			base["strategy"] = "least_loaded"
			base["sticky_sessions"] = true
			return base
		},
		"cost_optimizer": func(base map[string]any, opp models.Opportunity) map[string]any {
			base["savings_target"] = opp.TargetValue
			return base
		},
	}
}

// experimentalModeStrategy is the fallback for areas without a
// registered strategy: it flips a generic flag the area is expected to
// interpret.
func experimentalModeStrategy(base map[string]any, _ models.Opportunity) map[string]any {
	base["experimental_mode"] = true
	return base
}

// controlConfig returns a copy of the default configuration for the
// area, or an empty config for unknown areas.
func controlConfig(area string) map[string]any {
	base, ok := controlConfigs[area]
	if !ok {
		return map[string]any{}
	}
	return cloneConfig(base)
}

func cloneConfig(cfg map[string]any) map[string]any {
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}
