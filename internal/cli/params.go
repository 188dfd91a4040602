package cli

import (
	"strconv"
	"strings"

	"github.com/mlps/physlearn/internal/config"
	"github.com/mlps/physlearn/pkg/errors"
)

// parseValue reads a flag value as an int, a float, a bool or, failing
// those, a string.
func parseValue(s string) any {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func parseValues(raw []string) []any {
	out := make([]any, len(raw))
	for i, s := range raw {
		out[i] = parseValue(s)
	}
	return out
}

func splitAssignment(flag, s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return "", "", errors.NewValidationError(flag, "must be key=value", s)
	}
	return strings.TrimSpace(k), v, nil
}

// applySet merges --set key=value pairs into the model parameters.
func applySet(cfg *config.Config, set []string) error {
	for _, s := range set {
		k, v, err := splitAssignment("set", s)
		if err != nil {
			return err
		}
		if cfg.Model.Params == nil {
			cfg.Model.Params = make(map[string]any)
		}
		cfg.Model.Params[k] = parseValue(v)
	}
	return nil
}

// parseGrid reads --grid key=v1,v2,... entries.
func parseGrid(entries []string) (map[string][]any, error) {
	grid := make(map[string][]any, len(entries))
	for _, e := range entries {
		k, v, err := splitAssignment("grid", e)
		if err != nil {
			return nil, err
		}
		grid[k] = parseValues(strings.Split(v, ","))
	}
	return grid, nil
}
