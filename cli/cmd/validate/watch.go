package validate

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/compozy/traincfg/pkg/config"
	"github.com/compozy/traincfg/pkg/logger"
)

// watchFiles re-validates each file after it changes, until interrupted.
func watchFiles(
	ctx context.Context,
	cmd *cobra.Command,
	fs afero.Fs,
	cfg *config.Config,
	opts *options,
	validator *Validator,
	files []string,
) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.FromContext(ctx)

	watcher, err := config.NewWatcher(ctx, cfg.Watch.Debounce)
	if err != nil {
		return err
	}
	defer watcher.Close()

	changed := make(chan string, len(files))
	watcher.OnChange(func(path string) {
		select {
		case changed <- path:
		default:
		}
	})
	byAbs := make(map[string]string, len(files))
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", file, err)
		}
		byAbs[abs] = file
		if err := watcher.Watch(ctx, file); err != nil {
			return err
		}
	}
	log.Info("watching for changes", "files", len(files))

	for {
		select {
		case <-ctx.Done():
			log.Info("stopped watching")
			return nil
		case abs := <-changed:
			path, ok := byAbs[abs]
			if !ok {
				continue
			}
			result := validator.File(ctx, path, true)
			if err := render(cmd, fs, cfg, opts, []Result{result}); err != nil {
				log.Error("validation failed", "error", err)
			}
		}
	}
}
