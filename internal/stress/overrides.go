package stress

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Overrides maps stress scenario id to custom parameter values.
type Overrides map[string]map[string]decimal.Decimal

// For returns the custom values for id, or nil.
func (o Overrides) For(id string) map[string]decimal.Decimal {
	if o == nil {
		return nil
	}
	return o[id]
}

// ParseOverrideSpec parses an override specification string.
// Format: "scenario_id:param1=value1,param2=value2"
// Example: "market_crash:equity_decline=30,bond_decline=5"
func ParseOverrideSpec(spec string) (string, map[string]decimal.Decimal, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("invalid override spec format, expected 'id:params', got: %s", spec)
	}

	id := strings.TrimSpace(parts[0])
	if id == "" {
		return "", nil, fmt.Errorf("invalid override spec, missing scenario id: %s", spec)
	}
	paramsStr := strings.TrimSpace(parts[1])

	values := make(map[string]decimal.Decimal)
	if paramsStr != "" {
		for _, pair := range strings.Split(paramsStr, ",") {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) != 2 {
				return "", nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", pair)
			}
			v, err := decimal.NewFromString(strings.TrimSpace(kv[1]))
			if err != nil {
				return "", nil, fmt.Errorf("invalid value for %s: %w", strings.TrimSpace(kv[0]), err)
			}
			values[strings.TrimSpace(kv[0])] = v
		}
	}
	return id, values, nil
}

// ParseOverrides merges several override specs. Later specs win for the
// same id and parameter.
func ParseOverrides(specs []string) (Overrides, error) {
	out := make(Overrides)
	for _, spec := range specs {
		id, values, err := ParseOverrideSpec(spec)
		if err != nil {
			return nil, err
		}
		if out[id] == nil {
			out[id] = make(map[string]decimal.Decimal)
		}
		for k, v := range values {
			out[id][k] = v
		}
	}
	return out, nil
}
