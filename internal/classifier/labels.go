package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LabelConfig holds the ordered label list and optional per-feature
// standardization parameters, index-aligned with the model's output layer.
type LabelConfig struct {
	ClassNames  []string  `json:"class_names"`
	FeatureMean []float64 `json:"feature_mean"`
	FeatureStd  []float64 `json:"feature_std"`
}

// ParseLabelConfig parses a label resource. Two shapes are supported and
// selected by sniffing the top-level JSON token:
//
//   - a bare ordered list of label strings (no normalization), or
//   - a record with class_names, feature_mean and feature_std fields.
func ParseLabelConfig(data []byte) (*LabelConfig, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty label resource")
	}

	if trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return nil, fmt.Errorf("parse label list: %w", err)
		}
		return &LabelConfig{ClassNames: names}, nil
	}

	var config LabelConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse label config: %w", err)
	}
	if len(config.ClassNames) == 0 {
		return nil, fmt.Errorf("label config has no class_names")
	}
	if len(config.FeatureMean) != len(config.FeatureStd) {
		return nil, fmt.Errorf("feature_mean has %d entries, feature_std has %d",
			len(config.FeatureMean), len(config.FeatureStd))
	}
	return &config, nil
}

// HasNormalization reports whether per-feature mean/std parameters are present.
func (c *LabelConfig) HasNormalization() bool {
	return len(c.FeatureMean) > 0
}
