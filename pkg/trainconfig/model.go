package trainconfig

import (
	"fmt"

	"github.com/compozy/traincfg/pkg/document"
)

// checkResize requires resize to be at least patch_size in every dimension.
// A scalar on either side applies to all dimensions.
func checkResize(n *normalization, v any) (any, error) {
	resize, err := numbers(v)
	if err != nil {
		return nil, invalidValue("resize", "must be a sequence of numbers", err)
	}
	psize, err := numbers(document.Value(n.cfg, "psize"))
	if err != nil {
		return nil, invalidValue("patch_size", "must be a sequence of numbers", err)
	}
	if len(resize) != len(psize) && len(resize) != 1 && len(psize) != 1 {
		return nil, invalidValue("resize",
			fmt.Sprintf("has %d dimensions but 'patch_size' has %d", len(resize), len(psize)), nil)
	}
	for i := 0; i < max(len(resize), len(psize)); i++ {
		if at(resize, i) < at(psize, i) {
			return nil, invalidValue("resize", "needs to be greater than or equal to 'patch_size'", nil)
		}
	}
	return v, nil
}

func at(values []float64, i int) float64 {
	if len(values) == 1 {
		return values[0]
	}
	return values[i]
}

// checkModel requires a non-empty model mapping naming its architecture and
// final layer.
func checkModel(_ *normalization, v any) (any, error) {
	model, ok := document.AsMap(v)
	if !ok {
		return nil, invalidValue("model", "needs to be populated as a mapping", nil)
	}
	if model.Len() == 0 {
		return nil, invalidValue("model", "needs to be populated as a mapping with all properties present", nil)
	}
	if !document.Truthy(document.Value(model, "architecture")) {
		return nil, missingField("model.architecture", "needs to be defined")
	}
	if !document.Truthy(document.Value(model, "final_layer")) {
		return nil, missingField("model.final_layer", "needs to be defined")
	}
	return model, nil
}

// normalizeNestedTraining fills unset fold counts with the sentinel value.
func normalizeNestedTraining(n *normalization, v any) (any, error) {
	nested, ok := document.AsMap(v)
	if !ok {
		return nil, invalidValue("nested_training", "must be a mapping with 'holdout' and 'validation' fold counts", nil)
	}
	for _, split := range []string{"holdout", "validation"} {
		if document.Truthy(document.Value(nested, split)) {
			continue
		}
		nested.Set(split, defaultNestedFoldCount)
		n.notice(NoticeDefault, "nested_training."+split,
			fmt.Sprintf("using default folds for %s split", split), defaultNestedFoldCount)
	}
	return nested, nil
}
