package trainconfig

import (
	"github.com/compozy/traincfg/pkg/document"
)

const (
	defaultNumEpochs         = 100
	defaultBatchSize         = 1
	defaultLearningRate      = 0.001
	defaultOptimizer         = "adam"
	defaultBaseFilters       = 30
	defaultModelName         = "resunet"
	defaultScheduler         = "triangle"
	defaultQueueMaxLength    = 100
	defaultSamplesPerVolume  = 10
	defaultQueueWorkers      = 4
	defaultNestedFoldCount   = -10
	defaultParallelComputing = ""
)

func constant(v any) func(*document.Map) any {
	return func(*document.Map) any { return v }
}

func emptyMap(*document.Map) any {
	return document.NewMap()
}

// rules is the normalization pipeline, in execution order.
var rules = []Rule{
	{
		Key:     "version",
		Policy:  Required,
		Missing: "must be defined with 'minimum' and 'maximum' fields to determine the compatibility of the configuration with the engine",
		Check:   checkVersion,
	},
	{
		Key:     "class_list",
		Policy:  Required,
		Missing: "must be present in the configuration",
	},
	{
		Key:      "dimension",
		Policy:   Required,
		Presence: Truthy,
		Missing:  "must be defined, either 2 or 3",
	},
	{
		Key:     "patch_size",
		Policy:  Required,
		Missing: "must be present in the configuration",
		Derived: []string{"psize"},
	},
	{
		Key:           "resize",
		Default:       constant(nil),
		DefaultNotice: "resize not given, images keep their size",
		Check:         checkResize,
	},
	{
		Key:     "num_epochs",
		Default: constant(defaultNumEpochs),
		Coerce:  toInt,
	},
	{
		Key: "patience",
		Default: func(cfg *document.Map) any {
			return document.Value(cfg, "num_epochs")
		},
		DefaultNotice: "patience not given, training for the full number of epochs",
		Coerce:        toInt,
	},
	{
		Key:     "batch_size",
		Default: constant(defaultBatchSize),
		Coerce:  toInt,
	},
	{
		Key:           "amp",
		Default:       constant(false),
		DefaultNotice: "mixed precision training disabled",
		Coerce:        toBool,
	},
	{
		Key:     "learning_rate",
		Default: constant(defaultLearningRate),
		Coerce:  toFloat,
	},
	{
		Key:     "loss_function",
		Default: constant(string(LossDice)),
		Check:   normalizeLoss,
	},
	{
		Key:     "opt",
		Default: constant(defaultOptimizer),
		Coerce:  toString,
	},
	{
		Key:           "data_augmentation",
		Default:       emptyMap,
		DefaultNotice: "no data augmentation configured",
		Check:         normalizeAugmentation,
	},
	{
		Key:           "data_preprocessing",
		Default:       emptyMap,
		DefaultNotice: "no data preprocessing configured",
		Check:         normalizePreprocessing,
	},
	{
		Key:     "base_filters",
		Default: constant(defaultBaseFilters),
		Coerce:  toInt,
	},
	{
		Key:           "which_model",
		Aliases:       []string{"modelName"},
		Deprecated:    "this option has been superseded by 'model'",
		Default:       constant(defaultModelName),
		DefaultNotice: "using default model name",
		Coerce:        toString,
	},
	{
		Key:     "model",
		Policy:  Required,
		Missing: "must be populated as a mapping",
		Check:   checkModel,
	},
	{
		Key:     "kcross_validation",
		Policy:  Retired,
		Missing: "is no longer used, use 'nested_training' instead",
	},
	{
		Key:      "nested_training",
		Policy:   Required,
		Presence: Truthy,
		Missing:  "must be defined with 'holdout' and 'validation' fold counts",
		Check:    normalizeNestedTraining,
	},
	{
		Key:     "scheduler",
		Default: constant(defaultScheduler),
		Coerce:  toString,
	},
	{
		Key:     "q_max_length",
		Default: constant(defaultQueueMaxLength),
		Coerce:  toInt,
	},
	{
		Key:     "q_samples_per_volume",
		Default: constant(defaultSamplesPerVolume),
		Coerce:  toInt,
	},
	{
		Key:     "q_num_workers",
		Default: constant(defaultQueueWorkers),
		Coerce:  toInt,
	},
	{
		Key:     "q_verbose",
		Default: constant(false),
		Coerce:  verboseFlag,
	},
	{
		Key:     "parallel_compute_command",
		Default: constant(defaultParallelComputing),
		Coerce:  stripQuotes,
	},
}

// Rules returns a copy of the rule table in execution order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
