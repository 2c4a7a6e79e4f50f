package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tracekeep/src/assemble"
	"tracekeep/src/broker"
	"tracekeep/src/envinfo"
	"tracekeep/src/frames"
	"tracekeep/src/ingest"
	"tracekeep/src/notify"
	"tracekeep/src/store"
)

var (
	followPath string
	fromStart  bool
	noEcho     bool
)

// watchCmd captures stack traces from stdin or a followed log file
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Capture stack traces from stdin or a log file",
	Long: `Reads console output line by line and saves every stack trace it
recognises as a numbered report in the report directory.

By default lines are read from stdin until EOF, and lines that are not part
of a stack trace are echoed to stdout. With --follow the named file is tailed
like 'tail -F' until interrupted.

Example:
  java -jar app.jar 2>&1 | tracekeep watch
  tracekeep watch --follow /var/log/app.log`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&followPath, "follow", "f", "", "tail this file instead of reading stdin")
	watchCmd.Flags().BoolVar(&fromStart, "from-start", false, "with --follow, process the existing file content first")
	watchCmd.Flags().BoolVarP(&noEcho, "quiet", "q", false, "do not echo unrelated lines to stdout")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	log, flush, err := newLogger(appConfig)
	if err != nil {
		return err
	}
	defer flush()

	files, err := store.NewFileStore(appConfig.ReportDir)
	if err != nil {
		return err
	}
	log.Info("Saving reports to %s (next id %d)", files.Dir(), files.NextID())

	index, err := openIndex(ctx, appConfig, log)
	if err != nil {
		return err
	}
	defer index.Close()

	brk, err := broker.New(appConfig.Brokers, log)
	if err != nil {
		return err
	}
	closeBroker := sync.OnceValue(brk.Close)
	defer closeBroker()

	agent := notify.NewAgent(brk, index, log, notify.AgentOptions{
		Topic:   appConfig.Topic,
		Program: programName,
	})
	// Subscribe before any line is read so no record is published unheard.
	msgChan, err := agent.Subscribe(ctx)
	if err != nil {
		return err
	}

	asm := assemble.New(files, assemble.Options{
		QuietPeriod: appConfig.QuietPeriod,
		Header:      envinfo.NewCollector(programName, version, appConfig.ExtendedInfo, appConfig.ComponentNames()),
		Registry:    frames.NewPrefixRegistry(appConfig.Components),
		Emitter:     notify.NewEmitter(brk, appConfig.Topic),
		Logger:      log,
	})

	if followPath == "" && stdinIsTerminal() {
		log.Info("Reading from the terminal. Pipe a program's output into `%s watch` to capture its traces.", programName)
	}

	var echo io.Writer = cmd.OutOrStdout()
	if noEcho {
		echo = nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return agent.Consume(gctx, msgChan)
	})
	g.Go(func() error {
		// Seal the last trace, then close the broker so Consume drains and returns.
		defer closeBroker()
		defer asm.Close()

		var err error
		if followPath != "" {
			log.Info("Following %s", followPath)
			err = ingest.NewFollower(followPath, asm, ingest.FollowerOptions{
				FromStart:   fromStart,
				Passthrough: echo,
				Logger:      log,
			}).Run(gctx)
		} else {
			err = ingest.Pump(gctx, cmd.InOrStdin(), asm, echo)
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Debug("Stopped watching")
	return nil
}

// stdinIsTerminal reports whether stdin is an interactive terminal.
func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
