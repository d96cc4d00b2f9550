package models

import "dario.cat/mergo"

// MergeCollected shallow-merges a patch of collected data into base and
// returns the result. New values replace old ones; nil patch values are
// stripped first so a present field is never overwritten with null. Neither
// input map is mutated.
func MergeCollected(base, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	cleaned := make(map[string]any, len(patch))
	for k, v := range patch {
		if v == nil {
			continue
		}
		cleaned[k] = v
	}
	// mergo with override: patch wins on conflicting keys. Shallow by
	// contract — collected data is a flat mapping.
	if err := mergo.Map(&merged, cleaned, mergo.WithOverride); err != nil {
		// mergo only fails on non-map inputs, which the signature rules out;
		// fall back to a manual overwrite to keep the operation total.
		for k, v := range cleaned {
			merged[k] = v
		}
	}
	return merged
}
