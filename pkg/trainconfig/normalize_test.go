package trainconfig

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/traincfg/pkg/document"
)

const engineVersion = "0.0.8.dev0"

func validDoc(kv ...any) *document.Map {
	doc := document.MapOf(
		"version", document.MapOf("minimum", "0.0.7", "maximum", "0.0.9"),
		"class_list", []any{0, 1},
		"dimension", 2,
		"patch_size", []any{64, 64},
		"model", document.MapOf("architecture", "resunet", "final_layer", "softmax"),
		"nested_training", document.MapOf("holdout", 5, "validation", 3),
	)
	for i := 0; i+1 < len(kv); i += 2 {
		doc.Set(kv[i].(string), document.FromGo(kv[i+1]))
	}
	return doc
}

func normalize(t *testing.T, doc *document.Map, opts ...Option) *document.Map {
	t.Helper()
	out, err := Normalize(context.Background(), doc, engineVersion, opts...)
	require.NoError(t, err)
	require.NotNil(t, out)
	return out
}

func fieldError(t *testing.T, err error) *FieldError {
	t.Helper()
	require.Error(t, err)
	var fe *FieldError
	require.True(t, errors.As(err, &fe), "expected a *FieldError, got %T", err)
	return fe
}

func TestNormalize_Defaults(t *testing.T) {
	t.Run("Should fill every optional field of a minimal document", func(t *testing.T) {
		out := normalize(t, validDoc())

		assert.Nil(t, document.Value(out, "resize"))
		assert.True(t, document.Has(out, "resize"))
		assert.Equal(t, 100, document.Value(out, "num_epochs"))
		assert.Equal(t, 100, document.Value(out, "patience"))
		assert.Equal(t, 1, document.Value(out, "batch_size"))
		assert.Equal(t, false, document.Value(out, "amp"))
		assert.Equal(t, 0.001, document.Value(out, "learning_rate"))
		assert.Equal(t, "dc", document.Value(out, "loss_function"))
		assert.Equal(t, "adam", document.Value(out, "opt"))
		assert.Equal(t, 30, document.Value(out, "base_filters"))
		assert.Equal(t, "resunet", document.Value(out, "which_model"))
		assert.Equal(t, "triangle", document.Value(out, "scheduler"))
		assert.Equal(t, 100, document.Value(out, "q_max_length"))
		assert.Equal(t, 10, document.Value(out, "q_samples_per_volume"))
		assert.Equal(t, 4, document.Value(out, "q_num_workers"))
		assert.Equal(t, false, document.Value(out, "q_verbose"))
		assert.Equal(t, "", document.Value(out, "parallel_compute_command"))
		assert.Equal(t, map[string]any{}, document.ToGo(document.Value(out, "data_augmentation")))
		assert.Equal(t, map[string]any{}, document.ToGo(document.Value(out, "data_preprocessing")))
	})

	t.Run("Should mirror patch_size into psize", func(t *testing.T) {
		out := normalize(t, validDoc())
		assert.Equal(t, []any{64, 64}, document.Value(out, "psize"))
	})

	t.Run("Should default patience to the configured number of epochs", func(t *testing.T) {
		out := normalize(t, validDoc("num_epochs", "250"))
		assert.Equal(t, 250, document.Value(out, "num_epochs"))
		assert.Equal(t, 250, document.Value(out, "patience"))
	})

	t.Run("Should treat null optional values as missing", func(t *testing.T) {
		out := normalize(t, validDoc("batch_size", nil, "opt", nil))
		assert.Equal(t, 1, document.Value(out, "batch_size"))
		assert.Equal(t, "adam", document.Value(out, "opt"))
	})

	t.Run("Should report every default substitution", func(t *testing.T) {
		var notices []Notice
		normalize(t, validDoc("num_epochs", 10), WithNoticeHandler(func(n Notice) {
			notices = append(notices, n)
		}))

		fields := make(map[string]NoticeKind)
		for _, n := range notices {
			fields[n.Field] = n.Kind
		}
		assert.Equal(t, NoticeDefault, fields["batch_size"])
		assert.Equal(t, NoticeDefault, fields["patience"])
		assert.Equal(t, NoticeDefault, fields["q_num_workers"])
		assert.NotContains(t, fields, "num_epochs")
		assert.NotContains(t, fields, "nested_training.holdout")
	})
}

func TestNormalize_Coercion(t *testing.T) {
	t.Run("Should coerce values to their canonical types", func(t *testing.T) {
		out := normalize(t, validDoc(
			"num_epochs", "20",
			"batch_size", 4.0,
			"amp", "True",
			"learning_rate", "1e-4",
			"opt", 7,
			"base_filters", "16",
			"q_num_workers", 0,
		))
		assert.Equal(t, 20, document.Value(out, "num_epochs"))
		assert.Equal(t, 4, document.Value(out, "batch_size"))
		assert.Equal(t, true, document.Value(out, "amp"))
		assert.InDelta(t, 1e-4, document.Value(out, "learning_rate"), 1e-12)
		assert.Equal(t, "7", document.Value(out, "opt"))
		assert.Equal(t, 16, document.Value(out, "base_filters"))
		assert.Equal(t, 0, document.Value(out, "q_num_workers"))
	})

	t.Run("Should read integer strings as decimal", func(t *testing.T) {
		out := normalize(t, validDoc(
			"num_epochs", "010",
			"batch_size", " 8 ",
			"base_filters", "32.0",
		))
		assert.Equal(t, 10, document.Value(out, "num_epochs"))
		assert.Equal(t, 8, document.Value(out, "batch_size"))
		assert.Equal(t, 32, document.Value(out, "base_filters"))
	})

	t.Run("Should fail on values that cannot be coerced", func(t *testing.T) {
		cases := []struct {
			key   string
			value any
		}{
			{"num_epochs", "many"},
			{"num_epochs", "0x10"},
			{"base_filters", "1.5"},
			{"batch_size", true},
			{"learning_rate", "fast"},
			{"amp", "sometimes"},
			{"opt", []any{"adam"}},
		}
		for _, tc := range cases {
			_, err := Normalize(context.Background(), validDoc(tc.key, tc.value), engineVersion)
			fe := fieldError(t, err)
			assert.ErrorIs(t, err, ErrInvalidValue, tc.key)
			assert.Equal(t, tc.key, fe.Field)
		}
	})

	t.Run("Should enable verbose queues only for True", func(t *testing.T) {
		cases := []struct {
			value any
			want  bool
		}{
			{"True", true},
			{"true", false},
			{"yes", false},
			{true, true},
			{false, false},
			{1, false},
		}
		for _, tc := range cases {
			out := normalize(t, validDoc("q_verbose", tc.value))
			assert.Equal(t, tc.want, document.Value(out, "q_verbose"), "%v", tc.value)
		}
	})

	t.Run("Should strip quotes from the parallel compute command", func(t *testing.T) {
		out := normalize(t, validDoc("parallel_compute_command", `qsub -b y -l gpu 'python' "train.py"`))
		assert.Equal(t, "qsub -b y -l gpu python train.py", document.Value(out, "parallel_compute_command"))
	})
}

func TestNormalize_RequiredFields(t *testing.T) {
	t.Run("Should fail naming each missing required field", func(t *testing.T) {
		for _, key := range []string{"version", "class_list", "dimension", "patch_size", "model", "nested_training"} {
			doc := validDoc()
			doc.Delete(key)

			_, err := Normalize(context.Background(), doc, engineVersion)

			fe := fieldError(t, err)
			assert.ErrorIs(t, err, ErrMissingField, key)
			assert.Equal(t, key, fe.Field)
			assert.Contains(t, err.Error(), key)
		}
	})

	t.Run("Should treat a falsy dimension as missing", func(t *testing.T) {
		_, err := Normalize(context.Background(), validDoc("dimension", 0), engineVersion)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("Should treat an empty nested_training as missing", func(t *testing.T) {
		_, err := Normalize(context.Background(), validDoc("nested_training", map[string]any{}), engineVersion)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("Should stop at the first violation in rule order", func(t *testing.T) {
		doc := validDoc()
		doc.Delete("class_list")
		doc.Delete("model")

		_, err := Normalize(context.Background(), doc, engineVersion)

		assert.Equal(t, "class_list", fieldError(t, err).Field)
	})
}

func TestNormalize_VersionGate(t *testing.T) {
	withRange := func(minimum, maximum any) *document.Map {
		return validDoc("version", map[string]any{"minimum": minimum, "maximum": maximum})
	}

	t.Run("Should accept the engine version at both boundaries", func(t *testing.T) {
		normalize(t, withRange("0.0.8", "0.0.9"))
		normalize(t, withRange("0.0.7", "0.0.8"))
	})

	t.Run("Should reject an engine older than the minimum", func(t *testing.T) {
		_, err := Normalize(context.Background(), withRange("0.0.9", "0.1.0"), engineVersion)
		assert.ErrorIs(t, err, ErrIncompatibleVersion)
		assert.Contains(t, err.Error(), engineVersion)
	})

	t.Run("Should reject an engine newer than the maximum", func(t *testing.T) {
		_, err := Normalize(context.Background(), withRange("0.0.5", "0.0.7"), engineVersion)
		assert.ErrorIs(t, err, ErrIncompatibleVersion)
	})

	t.Run("Should require both bounds", func(t *testing.T) {
		_, err := Normalize(context.Background(), validDoc("version", map[string]any{"minimum": "0.0.1"}), engineVersion)
		assert.ErrorIs(t, err, ErrMissingField)
		assert.Equal(t, "version.maximum", fieldError(t, err).Field)
	})

	t.Run("Should reject a version that is not a mapping", func(t *testing.T) {
		_, err := Normalize(context.Background(), validDoc("version", "0.0.8"), engineVersion)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("Should reject malformed version strings", func(t *testing.T) {
		_, err := Normalize(context.Background(), withRange("zero", "0.0.9"), engineVersion)
		assert.ErrorIs(t, err, ErrInvalidValue)

		_, err = Normalize(context.Background(), withRange("0.0.1", "0.0.9"), "dev")
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("Should compare semantically when asked to", func(t *testing.T) {
		doc := withRange("1.10.0", "2.0.0")
		_, err := Normalize(context.Background(), doc, "1.11.0")
		assert.ErrorIs(t, err, ErrIncompatibleVersion, "integer keys misorder differing widths")

		_, err = Normalize(context.Background(), doc, "1.11.0", WithVersionCheck(VersionCheckSemver))
		assert.NoError(t, err)
	})
}

func TestNormalize_Resize(t *testing.T) {
	t.Run("Should reject a resize smaller than the patch", func(t *testing.T) {
		_, err := Normalize(context.Background(),
			validDoc("patch_size", []any{128, 128}, "resize", []any{64, 64}), engineVersion)
		assert.ErrorIs(t, err, ErrInvalidValue)
		assert.Equal(t, "resize", fieldError(t, err).Field)
	})

	t.Run("Should keep a resize at least as large as the patch", func(t *testing.T) {
		out := normalize(t, validDoc("patch_size", []any{64, 64}, "resize", []any{128, 128}))
		assert.Equal(t, []any{128, 128}, document.Value(out, "resize"))
	})

	t.Run("Should compare every dimension", func(t *testing.T) {
		_, err := Normalize(context.Background(),
			validDoc("patch_size", []any{64, 64, 32}, "resize", []any{128, 128, 16}), engineVersion)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("Should broadcast a scalar resize", func(t *testing.T) {
		normalize(t, validDoc("patch_size", []any{64, 32}, "resize", 64))
	})

	t.Run("Should reject mismatched dimension counts", func(t *testing.T) {
		_, err := Normalize(context.Background(),
			validDoc("patch_size", []any{64, 64, 1}, "resize", []any{128, 128}), engineVersion)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("Should reject non-numeric sizes", func(t *testing.T) {
		_, err := Normalize(context.Background(), validDoc("resize", []any{"big", 128}), engineVersion)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
}

func TestNormalize_LossFunction(t *testing.T) {
	mse := map[string]any{"mse": map[string]any{"reduction": "mean"}}

	t.Run("Should default to dice", func(t *testing.T) {
		out := normalize(t, validDoc())
		assert.Equal(t, "dc", document.Value(out, "loss_function"))
	})

	t.Run("Should expand the mse tag into a mapping", func(t *testing.T) {
		out := normalize(t, validDoc("loss_function", "mse"))
		assert.Equal(t, mse, document.ToGo(document.Value(out, "loss_function")))
	})

	t.Run("Should pass other tags through", func(t *testing.T) {
		out := normalize(t, validDoc("loss_function", "cel"))
		assert.Equal(t, "cel", document.Value(out, "loss_function"))
	})

	t.Run("Should fill the mse reduction", func(t *testing.T) {
		for _, options := range []any{map[string]any{}, nil} {
			out := normalize(t, validDoc("loss_function", map[string]any{"mse": options}))
			assert.Equal(t, mse, document.ToGo(document.Value(out, "loss_function")))
		}
	})

	t.Run("Should keep an explicit mse reduction and other options", func(t *testing.T) {
		out := normalize(t, validDoc("loss_function", map[string]any{
			"mse": map[string]any{"reduction": "sum", "weight": 2},
		}))
		assert.Equal(t,
			map[string]any{"mse": map[string]any{"reduction": "sum", "weight": 2}},
			document.ToGo(document.Value(out, "loss_function")))
	})

	t.Run("Should collapse a mapping to its last non-mse key in document order", func(t *testing.T) {
		loss := document.MapOf("focal", nil, "mse", nil, "dcce", document.MapOf("alpha", 1))
		out := normalize(t, validDoc("loss_function", loss))
		assert.Equal(t, "dcce", document.Value(out, "loss_function"))
	})

	t.Run("Should fall back to dice for an empty mapping", func(t *testing.T) {
		out := normalize(t, validDoc("loss_function", map[string]any{}))
		assert.Equal(t, "dc", document.Value(out, "loss_function"))
	})

	t.Run("Should replace mse options that are not a mapping with defaults", func(t *testing.T) {
		var notices []Notice
		out, err := Normalize(context.Background(), validDoc("loss_function", map[string]any{"mse": "sum"}), engineVersion,
			WithNoticeHandler(func(n Notice) { notices = append(notices, n) }))
		require.NoError(t, err)
		assert.Equal(t, mse, document.ToGo(document.Value(out, "loss_function")))
		assert.Contains(t, notices, Notice{
			Kind:    NoticeDefault,
			Field:   "loss_function.mse",
			Message: "mse options must be a mapping, using default reduction",
			Value:   "sum",
		})
	})
}

func TestNormalize_DataAugmentation(t *testing.T) {
	t.Run("Should give every augmentation a probability", func(t *testing.T) {
		var notices []Notice
		out := normalize(t, validDoc("data_augmentation", document.MapOf(
			"rotate_90", nil,
			"noise", document.MapOf("mean", 0),
			"blur", document.MapOf("probability", 0.25),
			"flip", document.NewMap(),
			"normalize", nil,
		)), WithNoticeHandler(func(n Notice) { notices = append(notices, n) }))

		assert.Equal(t, map[string]any{
			"rotate_90": map[string]any{"probability": 1},
			"noise":     map[string]any{"mean": 0, "probability": 1},
			"blur":      map[string]any{"probability": 0.25},
			"flip":      map[string]any{"probability": 1},
			"normalize": nil,
		}, document.ToGo(document.Value(out, "data_augmentation")))

		var skipped []string
		for _, n := range notices {
			if n.Kind == NoticeSkipped {
				skipped = append(skipped, n.Field)
			}
		}
		assert.Equal(t, []string{"data_augmentation.normalize"}, skipped)
	})

	t.Run("Should reject entries that are not mappings", func(t *testing.T) {
		_, err := Normalize(context.Background(),
			validDoc("data_augmentation", map[string]any{"rotate_90": 0.5}), engineVersion)
		assert.ErrorIs(t, err, ErrInvalidValue)
		assert.Equal(t, "data_augmentation.rotate_90", fieldError(t, err).Field)
	})
}

func TestNormalize_DataPreprocessing(t *testing.T) {
	t.Run("Should reject threshold together with clip", func(t *testing.T) {
		_, err := Normalize(context.Background(), validDoc("data_preprocessing", map[string]any{
			"threshold": map[string]any{"min": 0},
			"clip":      map[string]any{"max": 1},
		}), engineVersion)
		assert.ErrorIs(t, err, ErrConflictingFields)
	})

	t.Run("Should fill missing bounds", func(t *testing.T) {
		out := normalize(t, validDoc("data_preprocessing", map[string]any{
			"clip":      map[string]any{"min": -1},
			"normalize": nil,
		}))
		steps, ok := document.AsMap(document.Value(out, "data_preprocessing"))
		require.True(t, ok)
		clip, ok := document.AsMap(document.Value(steps, "clip"))
		require.True(t, ok)
		assert.Equal(t, -1, document.Value(clip, "min"))
		assert.Equal(t, math.MaxFloat64, document.Value(clip, "max"))
		assert.True(t, document.Has(steps, "normalize"))
	})

	t.Run("Should replace a scalar bound with the full range", func(t *testing.T) {
		out := normalize(t, validDoc("data_preprocessing", map[string]any{"threshold": 5}))
		steps, _ := document.AsMap(document.Value(out, "data_preprocessing"))
		assert.Equal(t,
			map[string]any{"min": 0x1p-1022, "max": math.MaxFloat64},
			document.ToGo(document.Value(steps, "threshold")))
	})
}

func TestNormalize_Model(t *testing.T) {
	t.Run("Should resolve the legacy model name", func(t *testing.T) {
		var notices []Notice
		out := normalize(t, validDoc("modelName", "unet"), WithNoticeHandler(func(n Notice) {
			notices = append(notices, n)
		}))

		assert.Equal(t, "unet", document.Value(out, "which_model"))
		assert.False(t, document.Has(out, "modelName"))
		require.NotEmpty(t, notices)
		var deprecated []Notice
		for _, n := range notices {
			if n.Kind == NoticeDeprecated {
				deprecated = append(deprecated, n)
			}
		}
		require.Len(t, deprecated, 1)
		assert.Equal(t, "modelName", deprecated[0].Field)
	})

	t.Run("Should prefer modelName over which_model", func(t *testing.T) {
		out := normalize(t, validDoc("which_model", "vgg", "modelName", "unet"))
		assert.Equal(t, "unet", document.Value(out, "which_model"))
	})

	t.Run("Should reject malformed models", func(t *testing.T) {
		cases := []struct {
			name  string
			model any
			field string
			kind  error
		}{
			{"scalar", "resunet", "model", ErrInvalidValue},
			{"empty", map[string]any{}, "model", ErrInvalidValue},
			{"no architecture", map[string]any{"final_layer": "softmax"}, "model.architecture", ErrMissingField},
			{"no final layer", map[string]any{"architecture": "unet", "final_layer": ""}, "model.final_layer", ErrMissingField},
		}
		for _, tc := range cases {
			_, err := Normalize(context.Background(), validDoc("model", tc.model), engineVersion)
			fe := fieldError(t, err)
			assert.ErrorIs(t, err, tc.kind, tc.name)
			assert.Equal(t, tc.field, fe.Field, tc.name)
		}
	})
}

func TestNormalize_NestedTraining(t *testing.T) {
	t.Run("Should reject the retired kcross_validation key", func(t *testing.T) {
		for _, value := range []any{5, nil} {
			_, err := Normalize(context.Background(), validDoc("kcross_validation", value), engineVersion)
			assert.ErrorIs(t, err, ErrRetiredField)
			assert.Contains(t, err.Error(), "nested_training")
		}
	})

	t.Run("Should write back sentinel fold counts", func(t *testing.T) {
		out := normalize(t, validDoc("nested_training", map[string]any{"holdout": 5, "validation": 0}))
		nested, ok := document.AsMap(document.Value(out, "nested_training"))
		require.True(t, ok)
		assert.Equal(t, 5, document.Value(nested, "holdout"))
		assert.Equal(t, -10, document.Value(nested, "validation"))
	})

	t.Run("Should reject a scalar nested_training", func(t *testing.T) {
		_, err := Normalize(context.Background(), validDoc("nested_training", 5), engineVersion)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
}

func TestNormalize_Properties(t *testing.T) {
	t.Run("Should be idempotent", func(t *testing.T) {
		doc := validDoc(
			"resize", []any{128, 128},
			"loss_function", "mse",
			"modelName", "unet",
			"q_verbose", "True",
			"data_augmentation", map[string]any{"rotate_90": nil, "resample": nil},
			"data_preprocessing", map[string]any{"clip": nil},
			"nested_training", map[string]any{"holdout": 0},
			"parallel_compute_command", `"run"`,
		)

		once := normalize(t, doc)
		twice := normalize(t, once)

		assert.Equal(t, document.Keys(once), document.Keys(twice))
		assert.Equal(t, document.ToGo(once), document.ToGo(twice))
	})

	t.Run("Should leave the input untouched", func(t *testing.T) {
		doc := validDoc("loss_function", map[string]any{"mse": nil})
		before := document.ToGo(document.Clone(doc))

		normalize(t, doc)

		assert.Equal(t, before, document.ToGo(doc))
	})

	t.Run("Should keep input order and append new fields in rule order", func(t *testing.T) {
		out := normalize(t, validDoc())
		keys := document.Keys(out)
		assert.Equal(t, []string{"version", "class_list", "dimension", "patch_size", "model", "nested_training"}, keys[:6])
		assert.Equal(t, "psize", keys[6])
		assert.Equal(t, "parallel_compute_command", keys[len(keys)-1])
	})

	t.Run("Should preserve fields no rule governs", func(t *testing.T) {
		out := normalize(t, validDoc("save_output", true))
		assert.Equal(t, true, document.Value(out, "save_output"))
	})
}

func TestRules(t *testing.T) {
	t.Run("Should list rules in pipeline order", func(t *testing.T) {
		var keys []string
		for _, r := range Rules() {
			keys = append(keys, r.Key)
		}
		assert.Equal(t, []string{
			"version", "class_list", "dimension", "patch_size", "resize",
			"num_epochs", "patience", "batch_size", "amp", "learning_rate",
			"loss_function", "opt", "data_augmentation", "data_preprocessing",
			"base_filters", "which_model", "model", "kcross_validation", "nested_training",
			"scheduler", "q_max_length", "q_samples_per_volume", "q_num_workers",
			"q_verbose", "parallel_compute_command",
		}, keys)
	})

	t.Run("Should return a copy", func(t *testing.T) {
		r := Rules()
		r[0].Key = "changed"
		assert.Equal(t, "version", Rules()[0].Key)
	})
}
