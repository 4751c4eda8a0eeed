package main

import (
	"cmp"
	"os"

	"github.com/fatih/color"
	cc "github.com/ivanpirog/coloredcobra"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tailscope/tailscope/pkg/config"
	"github.com/tailscope/tailscope/pkg/version"
)

var (
	trace_lvl, dbg_lvl, nfo_lvl, wrn_lvl, err_lvl bool

	configFilePath string
	metricsAddr    string

	cfg *config.Config
)

func initConfig() {
	var err error

	if configFilePath != "" {
		cfg, err = config.Load(configFilePath)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		cfg = config.Default()
	}

	switch {
	case trace_lvl:
		log.SetLevel(log.TraceLevel)
	case dbg_lvl:
		log.SetLevel(log.DebugLevel)
	case nfo_lvl:
		log.SetLevel(log.InfoLevel)
	case wrn_lvl:
		log.SetLevel(log.WarnLevel)
	case err_lvl:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(cfg.LogrusLevel())
	}

	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}
}

func main() {
	logFormatter := &log.TextFormatter{TimestampFormat: "02-01-2006 15:04:05", FullTimestamp: true}
	log.SetFormatter(logFormatter)

	rootCmd := &cobra.Command{
		Use:   "tailscope [file]",
		Short: "tailscope follows a growing file, or feeds one with timestamps",
		Long: `tailscope prints the last line of a file and every line appended afterwards,
surviving truncation, rotation and temporary disappearance of the file.
Its write mode appends the current time to a file at fixed intervals,
which makes a convenient data source for a follow session.

Without a subcommand, the file argument is followed (same as 'read').`,
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(_ *cobra.Command, args []string) error {
			return runRead(args[0], cmp.Or(cfg.PollInterval, defaultReadInterval), false)
		},
	}

	cc.Init(&cc.Config{
		RootCmd:       rootCmd,
		Headings:      cc.Yellow,
		Commands:      cc.Green + cc.Bold,
		CmdShortDescr: cc.Cyan,
		Example:       cc.Italic,
		ExecName:      cc.Bold,
		Aliases:       cc.Bold + cc.Italic,
		FlagsDataType: cc.White,
		Flags:         cc.Green,
		FlagsDescr:    cc.Cyan,
	})
	rootCmd.SetOut(color.Output)

	cmdVersion := &cobra.Command{
		Use:               "version",
		Short:             "Display version and exit.",
		Args:              cobra.ExactArgs(0),
		DisableAutoGenTag: true,
		Run: func(_ *cobra.Command, _ []string) {
			version.Show()
		},
	}
	rootCmd.AddCommand(cmdVersion)

	rootCmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "path to a tailscope config file")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics", "", "expose prometheus metrics on this address (e.g. 127.0.0.1:6060)")
	rootCmd.PersistentFlags().BoolVar(&dbg_lvl, "debug", false, "Set logging to debug.")
	rootCmd.PersistentFlags().BoolVar(&nfo_lvl, "info", false, "Set logging to info.")
	rootCmd.PersistentFlags().BoolVar(&wrn_lvl, "warning", false, "Set logging to warning.")
	rootCmd.PersistentFlags().BoolVar(&err_lvl, "error", false, "Set logging to error.")
	rootCmd.PersistentFlags().BoolVar(&trace_lvl, "trace", false, "Set logging to trace.")

	rootCmd.Flags().SortFlags = false
	rootCmd.PersistentFlags().SortFlags = false

	rootCmd.AddCommand(NewReadCmd())
	rootCmd.AddCommand(NewWriteCmd())

	if len(os.Args) > 1 {
		cobra.OnInitialize(initConfig)
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
