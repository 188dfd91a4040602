package model

import (
	"math"
	"strconv"

	"github.com/mlps/physlearn/pkg/errors"
)

// ParamFloat reads a float hyperparameter. Ints and numeric strings are
// accepted because YAML and command-line values arrive untyped.
func ParamFloat(name string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, errors.NewValidationError(name, "must be a number", v)
}

// ParamInt reads an integer hyperparameter. Whole floats are accepted.
func ParamInt(name string, v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x == math.Trunc(x) {
			return int(x), nil
		}
	case string:
		i, err := strconv.Atoi(x)
		if err == nil {
			return i, nil
		}
	}
	return 0, errors.NewValidationError(name, "must be an integer", v)
}

// ParamBool reads a boolean hyperparameter.
func ParamBool(name string, v interface{}) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err == nil {
			return b, nil
		}
	}
	return false, errors.NewValidationError(name, "must be a bool", v)
}

// ParamString reads a string hyperparameter.
func ParamString(name string, v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.NewValidationError(name, "must be a string", v)
	}
	return s, nil
}

// UnknownParam reports a hyperparameter the estimator does not have.
func UnknownParam(modelName, name string, v interface{}) error {
	return errors.NewValidationError(name, "unknown "+modelName+" parameter", v)
}
