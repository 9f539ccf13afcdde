package trainconfig

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/shlex"

	"github.com/compozy/traincfg/pkg/document"
)

// Params is a typed view of a normalized configuration for consumers that
// prefer struct access over map lookups.
type Params struct {
	Version                VersionRange   `mapstructure:"version"                  json:"version"                            jsonschema:"required"`
	ClassList              []any          `mapstructure:"class_list"               json:"class_list"                         jsonschema:"required"                          validate:"required,min=1"`
	Dimension              int            `mapstructure:"dimension"                json:"dimension"                          jsonschema:"required,enum=2,enum=3"            validate:"oneof=2 3"`
	PatchSize              []int          `mapstructure:"patch_size"               json:"patch_size"                         jsonschema:"required"                          validate:"required,dive,gt=0"`
	PSize                  []int          `mapstructure:"psize"                    json:"psize"`
	Resize                 []int          `mapstructure:"resize"                   json:"resize,omitempty"                                                                  validate:"omitempty,dive,gt=0"`
	NumEpochs              int            `mapstructure:"num_epochs"               json:"num_epochs"                         jsonschema:"default=100"                       validate:"gte=1"`
	Patience               int            `mapstructure:"patience"                 json:"patience"                                                                          validate:"gte=0"`
	BatchSize              int            `mapstructure:"batch_size"               json:"batch_size"                         jsonschema:"default=1"                         validate:"gte=1"`
	AMP                    bool           `mapstructure:"amp"                      json:"amp"                                jsonschema:"default=false"`
	LearningRate           float64        `mapstructure:"learning_rate"            json:"learning_rate"                      jsonschema:"default=0.001"                     validate:"gt=0"`
	LossFunction           any            `mapstructure:"loss_function"            json:"loss_function"`
	Optimizer              string         `mapstructure:"opt"                      json:"opt"                                jsonschema:"default=adam"                      validate:"required"`
	DataAugmentation       map[string]any `mapstructure:"data_augmentation"        json:"data_augmentation"`
	DataPreprocessing      map[string]any `mapstructure:"data_preprocessing"       json:"data_preprocessing"`
	BaseFilters            int            `mapstructure:"base_filters"             json:"base_filters"                       jsonschema:"default=30"                        validate:"gte=1"`
	WhichModel             string         `mapstructure:"which_model"              json:"which_model"                        jsonschema:"default=resunet"`
	Model                  ModelParams    `mapstructure:"model"                    json:"model"                              jsonschema:"required"`
	NestedTraining         NestedTraining `mapstructure:"nested_training"          json:"nested_training"                    jsonschema:"required"`
	Scheduler              string         `mapstructure:"scheduler"                json:"scheduler"                          jsonschema:"default=triangle"`
	QMaxLength             int            `mapstructure:"q_max_length"             json:"q_max_length"                       jsonschema:"default=100"                       validate:"gte=1"`
	QSamplesPerVolume      int            `mapstructure:"q_samples_per_volume"     json:"q_samples_per_volume"               jsonschema:"default=10"                        validate:"gte=1"`
	QNumWorkers            int            `mapstructure:"q_num_workers"            json:"q_num_workers"                      jsonschema:"default=4"                         validate:"gte=0"`
	QVerbose               bool           `mapstructure:"q_verbose"                json:"q_verbose"                          jsonschema:"default=false"`
	ParallelComputeCommand string         `mapstructure:"parallel_compute_command" json:"parallel_compute_command,omitempty"`
	// Extra keeps fields no rule governs.
	Extra map[string]any `mapstructure:",remain" json:"-"`
}

// VersionRange is the inclusive range of engine versions a configuration
// supports.
type VersionRange struct {
	Minimum string `mapstructure:"minimum" json:"minimum" jsonschema:"required" validate:"required"`
	Maximum string `mapstructure:"maximum" json:"maximum" jsonschema:"required" validate:"required"`
}

// ModelParams selects the network and its output layer.
type ModelParams struct {
	Architecture string         `mapstructure:"architecture" json:"architecture" jsonschema:"required" validate:"required"`
	FinalLayer   string         `mapstructure:"final_layer"  json:"final_layer"  jsonschema:"required" validate:"required"`
	Extra        map[string]any `mapstructure:",remain"      json:"-"`
}

// NestedTraining holds the outer (holdout) and inner (validation) fold
// counts; negative counts select the sentinel split.
type NestedTraining struct {
	Holdout    int            `mapstructure:"holdout"    json:"holdout"    jsonschema:"default=-10" validate:"ne=0"`
	Validation int            `mapstructure:"validation" json:"validation" jsonschema:"default=-10" validate:"ne=0"`
	Extra      map[string]any `mapstructure:",remain"    json:"-"`
}

// Decode converts a normalized configuration into Params. It does not run
// the stricter checks of Validate.
func Decode(cfg *document.Map) (*Params, error) {
	var params Params
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &params,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(document.ToGo(cfg)); err != nil {
		return nil, fmt.Errorf("failed to decode normalized configuration: %w", err)
	}
	return &params, nil
}

var paramsValidator = validator.New()

// Validate applies checks beyond what normalization enforces, such as the
// dimension being 2 or 3 and sizes being positive.
func (p *Params) Validate() error {
	if err := paramsValidator.Struct(p); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if len(p.Resize) > 0 && len(p.Resize) != len(p.PatchSize) {
		return fmt.Errorf("validation failed: resize has %d dimensions but patch_size has %d",
			len(p.Resize), len(p.PatchSize))
	}
	return nil
}

// ComputeCommandArgs splits the parallel compute command into arguments the
// way a POSIX shell would.
func (p *Params) ComputeCommandArgs() ([]string, error) {
	if p.ParallelComputeCommand == "" {
		return nil, nil
	}
	args, err := shlex.Split(p.ParallelComputeCommand)
	if err != nil {
		return nil, fmt.Errorf("failed to split parallel_compute_command: %w", err)
	}
	return args, nil
}
