// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"net"
	"net/http"
	"os"
	"time"

	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/logger"
	"github.com/spf13/cobra"
)

func GetRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "sqlastctl",
		Short:        "cli",
		SilenceUsage: true,
	}
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	ctx := &Context{}

	curls := rootCmd.PersistentFlags().StringArray("curls", []string{"localhost:3000"}, "API gateway addresses")
	logEncoder := rootCmd.PersistentFlags().String("log_encoder", "tidb", "log in format of tidb, console, or json")
	logLevel := rootCmd.PersistentFlags().String("log_level", "warn", "log level")
	indent := rootCmd.PersistentFlags().Bool("indent", true, "whether indent the returned json")
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		lg, _, _, err := logger.BuildLogger(&config.Log{
			Encoder: *logEncoder,
			LogOnline: config.LogOnline{
				Level: *logLevel,
			},
		})
		if err != nil {
			return err
		}
		ctx.Logger = lg.Named("cli")
		ctx.Client = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				IdleConnTimeout:       30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
		ctx.CUrls = *curls
		ctx.Indent = *indent
		return nil
	}

	rootCmd.AddCommand(GetParseCmd(ctx))
	rootCmd.AddCommand(GetFingerprintCmd(ctx))
	rootCmd.AddCommand(GetDialectsCmd(ctx))
	rootCmd.AddCommand(GetCacheCmd(ctx))
	rootCmd.AddCommand(GetHealthCmd(ctx))
	rootCmd.AddCommand(GetConfigCmd(ctx))
	return rootCmd
}
