package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crowdsecurity/go-cs-lib/trace"

	"github.com/tailscope/tailscope/pkg/beat"
)

const defaultWriteInterval = 2 * time.Second

func NewWriteCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:               "write <file>",
		Short:             "Append the current time to the file at fixed intervals",
		Aliases:           []string{"w"},
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return runWrite(args[0], interval)
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", defaultWriteInterval, "interval between timestamps")

	return cmd
}

func runWrite(path string, interval time.Duration) error {
	defer trace.CatchPanic("tailscope/write")

	path, err := expandPath(path)
	if err != nil {
		return err
	}

	writer := beat.NewWriter(path, interval, os.Stdout)

	if err := writer.Start(); err != nil {
		return err
	}

	serveMetrics()

	log.Infof("Writing to %s every %s", path, interval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("interrupt received, stopping")
		return writer.Stop()
	case <-writer.Dead():
		return writer.Err()
	}
}
