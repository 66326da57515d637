package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/pipeline"
)

const watchDebounce = 100 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		output string
		flags  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "watch [diagram.json|diagram.yaml]",
		Short: "Re-run layout whenever the diagram file changes",
		Long: `Lay out a diagram, then watch it and lay it out again on every change.

Bursts of file events are coalesced. A change that arrives while a layout is
still running supersedes it, and only the newest result is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = layoutOutputPath(input)
			}
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts := flags.options(cmd, c.Config.PipelineOptions())
			run := func(ctx context.Context) error {
				return relayout(ctx, runner, input, output, opts)
			}
			return watchFile(ctx, input, run, c.Logger)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	flags.register(cmd.Flags())

	return cmd
}

// relayout runs one layout and writes it unless ctx was canceled first.
func relayout(ctx context.Context, runner *pipeline.Runner, input, output string, opts pipeline.Options) error {
	prog := newProgress(runner.Logger)
	res, err := layoutFile(ctx, runner, input, opts)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := diagram.WriteFile(output, res.Data); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	prog.done(fmt.Sprintf("Wrote %s: %d nodes, %d edges", output, res.Stats.NodeCount, res.Stats.EdgeCount))
	return nil
}

// watchFile runs fn once, then again after every change to path until ctx
// ends. The parent directory is watched so editors that replace the file
// on save keep triggering.
func watchFile(ctx context.Context, path string, fn func(context.Context) error, logger *log.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	r := newRerunner(fn, logger)
	defer r.wait()

	r.trigger(ctx)
	logger.Info("watching", "path", path)

	match := func(name string) bool {
		a, err := filepath.Abs(name)
		return err == nil && a == abs
	}
	debounceEvents(ctx, watcher.Events, watcher.Errors, watchDebounce, match, func(n int) {
		logger.Debug("change detected", "events", n)
		r.trigger(ctx)
	}, logger)
	return nil
}

// debounceEvents calls fire once per burst of matching events, delay after
// the last one. It returns when ctx ends or either channel closes.
func debounceEvents(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	delay time.Duration, match func(string) bool, fire func(n int), logger *log.Logger) {
	timer := time.NewTimer(delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := 0
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !match(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			pending++
			timer.Reset(delay)
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watcher error", "err", err)
		case <-timer.C:
			if pending > 0 {
				fire(pending)
				pending = 0
			}
		}
	}
}

// rerunner runs fn in the background, canceling the previous run when a
// new one starts.
type rerunner struct {
	fn     func(context.Context) error
	logger *log.Logger

	mu     sync.Mutex
	gen    int
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newRerunner(fn func(context.Context) error, logger *log.Logger) *rerunner {
	return &rerunner{fn: fn, logger: logger}
}

func (r *rerunner) trigger(parent context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.logger.Info("layout superseded", "run", r.gen)
	}
	r.gen++
	gen := r.gen
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := r.fn(ctx)

		r.mu.Lock()
		if r.gen == gen {
			r.cancel = nil
		}
		r.mu.Unlock()
		cancel()

		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			r.logger.Debug("run canceled", "run", gen)
		default:
			r.logger.Error("layout failed", "run", gen, "err", err)
		}
	}()
}

// wait blocks until every started run has returned.
func (r *rerunner) wait() {
	r.wg.Wait()
}
