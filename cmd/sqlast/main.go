// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/cmd"
	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/sqlast/pkg/sctx"
	"github.com/pingcap/sqlast/pkg/server"
	"github.com/pingcap/sqlast/pkg/util/versioninfo"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          os.Args[0],
		Short:        "start the SQL parse and fingerprint server",
		Version:      fmt.Sprintf("%s, commit %s", versioninfo.SQLAstVersion, versioninfo.SQLAstGitHash),
		SilenceUsage: true,
	}
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	sctx := &sctx.Context{}

	var configInfo string
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&sctx.ConfigFile, "config", "", "server config file path")
	flags.StringVar(&sctx.Overlay.API.Addr, "addr", "", "HTTP and gRPC listen address, overrides api.addr")
	flags.IntVar(&sctx.Overlay.Cache.MaxCapacity, "cache-max-capacity", 0, "max number of cached parse results, overrides cache.max-capacity")
	flags.Uint64Var(&sctx.Overlay.Cache.TTL, "cache-ttl", 0, "seconds a cached parse result lives, overrides cache.ttl")
	flags.StringVar(&sctx.Overlay.Log.Level, "log-level", "", "log level, overrides log.level")
	flags.StringVar(&sctx.Overlay.Log.Encoder, "log-encoder", "", "log in format of tidb, console, or json, overrides log.encoder")
	flags.StringVar(&configInfo, "config-info", "", "output config info and exit")

	rootCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if configInfo != "" {
			info, err := config.ConfigInfo(configInfo, versioninfo.SQLAstVersion)
			if err != nil {
				return err
			}
			cmd.Println(info)
			return nil
		}
		srv, err := server.NewServer(cmd.Context(), sctx)
		if err != nil {
			if srv != nil {
				_ = srv.Close()
			}
			return errors.Wrapf(err, "fail to create server")
		}

		<-cmd.Context().Done()
		if e := srv.Close(); e != nil {
			return errors.Wrapf(e, "shutdown with errors")
		}
		return nil
	}
	return rootCmd
}

func main() {
	cmd.RunRootCommand(newRootCmd())
}
