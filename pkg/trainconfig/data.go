package trainconfig

import (
	"math"

	"github.com/compozy/traincfg/pkg/document"
)

// PreprocessingBound names the intensity bounding steps, of which a
// configuration may use at most one.
type PreprocessingBound string

const (
	BoundThreshold PreprocessingBound = "threshold"
	BoundClip      PreprocessingBound = "clip"
)

// smallestNormalFloat64 is the smallest positive normal float64.
const smallestNormalFloat64 = 0x1p-1022

const defaultAugmentationProbability = 1

// preprocessingOnly lists the steps that belong under data_preprocessing and
// are ignored when they appear among augmentations.
var preprocessingOnly = map[string]bool{
	"normalize":            true,
	"resample":             true,
	string(BoundThreshold): true,
	string(BoundClip):      true,
}

func isBound(key string) bool {
	switch PreprocessingBound(key) {
	case BoundThreshold, BoundClip:
		return true
	}
	return false
}

// normalizeAugmentation gives every augmentation a probability.
func normalizeAugmentation(n *normalization, v any) (any, error) {
	augmentations, ok := document.AsMap(v)
	if !ok {
		return nil, invalidValue("data_augmentation", "must be a mapping of augmentation names to options", nil)
	}
	for pair := augmentations.Oldest(); pair != nil; pair = pair.Next() {
		field := "data_augmentation." + pair.Key
		if preprocessingOnly[pair.Key] {
			n.notice(NoticeSkipped, field,
				"should be defined under 'data_preprocessing' and not under 'data_augmentation', skipping", nil)
			continue
		}
		if pair.Value == nil {
			pair.Value = document.MapOf("probability", defaultAugmentationProbability)
			continue
		}
		entry, ok := document.AsMap(pair.Value)
		if !ok {
			return nil, invalidValue(field, "must be a mapping of augmentation options", nil)
		}
		if document.Value(entry, "probability") == nil {
			entry.Set("probability", defaultAugmentationProbability)
		}
	}
	return augmentations, nil
}

// normalizePreprocessing fills the bounds of the threshold or clip step and
// rejects configurations using both.
func normalizePreprocessing(_ *normalization, v any) (any, error) {
	steps, ok := document.AsMap(v)
	if !ok {
		return nil, invalidValue("data_preprocessing", "must be a mapping of preprocessing steps to options", nil)
	}
	bound := ""
	for _, key := range document.Keys(steps) {
		if !isBound(key) {
			continue
		}
		if bound != "" {
			return nil, &FieldError{
				Field:  "data_preprocessing",
				Reason: "use only 'threshold' or 'clip', not both",
				Kind:   ErrConflictingFields,
			}
		}
		bound = key
	}
	if bound == "" {
		return steps, nil
	}
	entry, ok := document.AsMap(document.Value(steps, bound))
	if !ok {
		entry = document.NewMap()
		steps.Set(bound, entry)
	}
	if document.Value(entry, "min") == nil {
		entry.Set("min", smallestNormalFloat64)
	}
	if document.Value(entry, "max") == nil {
		entry.Set("max", math.MaxFloat64)
	}
	return steps, nil
}
