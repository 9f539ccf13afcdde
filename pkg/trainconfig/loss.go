package trainconfig

import (
	"github.com/compozy/traincfg/pkg/document"
)

// LossKind is a loss function tag the normalizer treats specially.
type LossKind string

const (
	LossDice LossKind = "dc"
	LossMSE  LossKind = "mse"
)

const defaultMSEReduction = "mean"

// normalizeLoss reduces the loss function to either a tag or a mapping with
// its required options filled in.
//
// In a mapping every "mse" entry gets a reduction; any other key becomes the
// resulting tag, and when there are several the last one in document order
// wins.
func normalizeLoss(n *normalization, v any) (any, error) {
	switch val := v.(type) {
	case string:
		if LossKind(val) == LossMSE {
			return document.MapOf(string(LossMSE), mseOptions(nil)), nil
		}
		return val, nil
	case *document.Map:
		if val.Len() == 0 {
			n.notice(NoticeDefault, "loss_function", "empty loss_function, using default", string(LossDice))
			return string(LossDice), nil
		}
		tag := ""
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			if LossKind(pair.Key) != LossMSE {
				tag = pair.Key
				continue
			}
			opts, ok := document.AsMap(pair.Value)
			if pair.Value != nil && !ok {
				n.notice(NoticeDefault, "loss_function.mse",
					"mse options must be a mapping, using default reduction", pair.Value)
			}
			pair.Value = mseOptions(opts)
		}
		if tag != "" {
			return tag, nil
		}
		return val, nil
	case []any:
		return nil, invalidValue("loss_function", "must be a tag or a mapping", nil)
	default:
		return v, nil
	}
}

// mseOptions makes sure the options carry a reduction.
func mseOptions(opts *document.Map) *document.Map {
	if opts == nil {
		opts = document.NewMap()
	}
	if document.Value(opts, "reduction") == nil {
		opts.Set("reduction", defaultMSEReduction)
	}
	return opts
}
