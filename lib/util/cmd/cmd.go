// Copyright 2023 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RunRootCommand runs rootCmd until it returns or the process is asked to
// stop, and exits with status 1 on error.
func RunRootCommand(rootCmd *cobra.Command) {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer signal.Stop(sc)

	// The server builds its own logger from the config. Until then signals
	// are reported in the TiDB text format on stdout.
	lg, _, err := log.InitLogger(&log.Config{Level: "info"})
	if err != nil {
		lg = zap.NewNop()
	}
	if err := Execute(context.Background(), rootCmd, sc, lg.Named(rootCmd.Name())); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "%+v\n", err)
		os.Exit(1)
	}
}

// Execute runs rootCmd with a context that is canceled by the first signal
// received from sc.
func Execute(ctx context.Context, rootCmd *cobra.Command, sc <-chan os.Signal, lg *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case sig := <-sc:
			lg.Info("received signal, shutting down",
				zap.Stringer("signal", sig),
				zap.String("command", rootCmd.CommandPath()))
			cancel()
		case <-done:
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}
