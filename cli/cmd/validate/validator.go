package validate

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/compozy/traincfg/cli/helpers"
	"github.com/compozy/traincfg/pkg/config"
	"github.com/compozy/traincfg/pkg/document"
	"github.com/compozy/traincfg/pkg/logger"
	"github.com/compozy/traincfg/pkg/trainconfig"
)

// Result is the outcome of validating one file.
type Result struct {
	Path   string
	Config *document.Map
	Err    error
}

// Validator normalizes training configurations read from a file system.
type Validator struct {
	fs  afero.Fs
	cfg *config.Config
}

func NewValidator(fs afero.Fs, cfg *config.Config) *Validator {
	return &Validator{fs: fs, cfg: cfg}
}

// Files validates every path concurrently. Results keep the order of paths
// and a failing file never stops the others.
func (v *Validator) Files(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(v.cfg.Validate.Workers, 1))
	for i, path := range paths {
		group.Go(func() error {
			results[i] = v.File(groupCtx, path, false)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// File validates a single file. With retry set, a file that is briefly
// missing is read again.
func (v *Validator) File(ctx context.Context, path string, retry bool) Result {
	var (
		doc *document.Map
		err error
	)
	if retry {
		doc, err = helpers.ReadDocumentWithRetry(ctx, v.fs, path)
	} else {
		doc, err = helpers.ReadDocument(v.fs, path)
	}
	if err != nil {
		return Result{Path: path, Err: err}
	}
	out, err := v.Normalize(ctx, path, doc)
	if err != nil {
		return Result{Path: path, Err: fmt.Errorf("%s: %w", path, err)}
	}
	return Result{Path: path, Config: out}
}

// Normalize runs the normalizer on doc and, in strict mode, the typed and
// schema checks on its result.
func (v *Validator) Normalize(ctx context.Context, path string, doc *document.Map) (*document.Map, error) {
	log := logger.FromContext(ctx).With("file", path)
	ctx = logger.ContextWithLogger(ctx, log)

	out, err := trainconfig.Normalize(ctx, doc, v.cfg.Engine.Version,
		trainconfig.WithVersionCheck(trainconfig.VersionCheck(v.cfg.Engine.VersionCheck)))
	if err != nil {
		return nil, err
	}
	if !v.cfg.Validate.Strict {
		return out, nil
	}
	params, err := trainconfig.Decode(out)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := trainconfig.CheckSchema(params); err != nil {
		return nil, err
	}
	log.Debug("strict checks passed")
	return out, nil
}
