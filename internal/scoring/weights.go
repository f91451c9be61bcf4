package scoring

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// weightTolerance is the allowed floating-point drift from a 1.0 weight sum.
const weightTolerance = 0.001

// Weights configures the contribution of each component to the overall
// score. Weights must sum to 1.0; the risk component is weighted on its
// inverted value (100 - risk).
type Weights struct {
	Financial float64 `yaml:"financial"`
	Strategic float64 `yaml:"strategic"`
	Market    float64 `yaml:"market"`
	Risk      float64 `yaml:"risk"`
	Execution float64 `yaml:"execution"`
	Team      float64 `yaml:"team"`
}

// BalancedWeights is the default profile for full-diligence scoring.
func BalancedWeights() Weights {
	return Weights{
		Financial: 0.25,
		Strategic: 0.20,
		Market:    0.15,
		Risk:      0.20,
		Execution: 0.10,
		Team:      0.10,
	}
}

// ScreeningWeights is the profile used for early-funnel screening, where
// team diligence data is not yet available.
func ScreeningWeights() Weights {
	return Weights{
		Financial: 0.30,
		Strategic: 0.25,
		Market:    0.20,
		Risk:      0.15,
		Execution: 0.10,
		Team:      0,
	}
}

// ProfileWeights returns a named preset profile.
func ProfileWeights(name string) (Weights, error) {
	switch name {
	case "", "balanced":
		return BalancedWeights(), nil
	case "screening":
		return ScreeningWeights(), nil
	default:
		return Weights{}, eris.Errorf("scoring: unknown weight profile %q", name)
	}
}

// Sum returns the total of all component weights.
func (w Weights) Sum() float64 {
	return w.Financial + w.Strategic + w.Market + w.Risk + w.Execution + w.Team
}

// Validate checks that the weight map is a valid convex combination. An
// invalid configuration is a caller error and fails fast.
func (w Weights) Validate() error {
	var errs []string

	named := map[string]float64{
		"financial": w.Financial,
		"strategic": w.Strategic,
		"market":    w.Market,
		"risk":      w.Risk,
		"execution": w.Execution,
		"team":      w.Team,
	}
	for name, v := range named {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", name))
		}
	}

	if sum := w.Sum(); math.Abs(sum-1.0) > weightTolerance {
		errs = append(errs, fmt.Sprintf("weights must sum to 1.0, got %.4f", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("scoring: weight validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadWeights reads a weight profile from a YAML file and validates it.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, eris.Wrapf(err, "scoring: read weights file %s", path)
	}
	var w Weights
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, eris.Wrapf(err, "scoring: parse weights file %s", path)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}
