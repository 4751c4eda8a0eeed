package main

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crowdsecurity/go-cs-lib/trace"

	"github.com/tailscope/tailscope/pkg/follow"
)

const defaultReadInterval = 20 * time.Second

func NewReadCmd() *cobra.Command {
	var (
		interval  time.Duration
		forcePoll bool
	)

	cmd := &cobra.Command{
		Use:               "read <file>",
		Short:             "Print the last line of the file, then follow any incoming changes",
		Aliases:           []string{"r"},
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("sleep") {
				interval = cmp.Or(cfg.PollInterval, defaultReadInterval)
			}

			return runRead(args[0], interval, forcePoll)
		},
	}

	cmd.Flags().DurationVarP(&interval, "sleep", "s", defaultReadInterval, "poll sleep interval")
	cmd.Flags().BoolVar(&forcePoll, "poll", false, "force the poll backend instead of kernel notifications")

	return cmd
}

func runRead(path string, interval time.Duration, forcePoll bool) error {
	defer trace.CatchPanic("tailscope/read")

	path, err := expandPath(path)
	if err != nil {
		return err
	}

	backend := follow.BackendKind(cfg.Backend)
	if forcePoll {
		backend = follow.BackendPoll
	}

	engine, err := newEngine(path, backend, interval)
	if err != nil {
		return err
	}

	if err := engine.Start(); err != nil {
		return err
	}

	serveMetrics()

	log.Infof("Following %s", path)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigChan:
			log.Info("interrupt received, stopping")
			return engine.Stop()
		case line, ok := <-engine.Lines():
			if !ok {
				return engine.Err()
			}

			fmt.Println(line.Text)
		}
	}
}

// newEngine builds the engine for the requested backend, falling back
// to the poll backend when the notify subscription cannot be
// established. The core only reports the setup failure; choosing the
// fallback is this layer's call.
func newEngine(path string, backend follow.BackendKind, interval time.Duration) (*follow.Engine, error) {
	engine, err := follow.NewEngine(follow.WatchConfig{
		Path:         path,
		Backend:      backend,
		PollInterval: interval,
	})
	if err == nil {
		return engine, nil
	}

	if backend != follow.BackendPoll && errors.Is(err, follow.ErrSetupFailed) {
		log.Warnf("%s, falling back to polling", err)

		return follow.NewEngine(follow.WatchConfig{
			Path:         path,
			Backend:      follow.BackendPoll,
			PollInterval: interval,
		})
	}

	return nil, err
}
