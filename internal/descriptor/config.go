package descriptor

// Configuration is the free-form key/value bag attached to nodes and
// flows. It round-trips through both YAML and JSON since descriptors can
// be authored in either format.
type Configuration map[string]interface{}

// Clone returns a deep copy of c so callers can mutate the result without
// aliasing the original descriptor's configuration.
func (c Configuration) Clone() Configuration {
	if c == nil {
		return nil
	}
	return cloneValue(c).(Configuration)
}

func cloneValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case Configuration:
		out := make(Configuration, len(vv))
		for k, val := range vv {
			out[k] = cloneValue(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(vv))
		for k, val := range vv {
			out[k] = cloneValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, val := range vv {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return vv
	}
}

// MergeOverwrite merges outer into the receiver, treating the receiver as
// the inner (more specific) configuration: keys present in the receiver
// win, keys only present in outer are inherited, and nested maps are
// merged recursively rather than replaced wholesale.
//
// This mirrors the original implementation's Merge trait
// (configuration::Merge), where a node's local configuration takes
// precedence over the global configuration it is merged with.
func (c Configuration) MergeOverwrite(outer Configuration) Configuration {
	if outer == nil {
		return c.Clone()
	}
	result := outer.Clone()
	for k, innerVal := range c {
		outerVal, exists := result[k]
		if !exists {
			result[k] = cloneValue(innerVal)
			continue
		}
		innerMap, innerIsMap := asConfiguration(innerVal)
		outerMap, outerIsMap := asConfiguration(outerVal)
		if innerIsMap && outerIsMap {
			result[k] = innerMap.MergeOverwrite(outerMap)
			continue
		}
		result[k] = cloneValue(innerVal)
	}
	return result
}

func asConfiguration(v interface{}) (Configuration, bool) {
	switch vv := v.(type) {
	case Configuration:
		return vv, true
	case map[string]interface{}:
		return Configuration(vv), true
	default:
		return nil, false
	}
}
