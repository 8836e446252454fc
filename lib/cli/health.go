// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/sqlast/pkg/util/versioninfo"
	"github.com/spf13/cobra"
)

const (
	healthPrefix = "/api/debug/health"
)

var ErrVersionTooOld = errors.New("server version is too old")

func GetHealthCmd(ctx *Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "health",
		Short: "",
	}
	minVersion := rootCmd.Flags().String("min-version", "", "fail if the server version is older than this")

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		resp, err := doRequest(cmd.Context(), ctx, http.MethodGet, healthPrefix, nil)
		if err != nil {
			return err
		}

		if *minVersion != "" {
			var info config.HealthInfo
			if err := json.Unmarshal([]byte(resp), &info); err != nil {
				return errors.Wrapf(errors.WithStack(err), "unexpected health response: %s", resp)
			}
			if !versioninfo.GtEqToVersion(info.Version, *minVersion) {
				return errors.Wrapf(ErrVersionTooOld, "got %s, want at least %s", info.Version, *minVersion)
			}
		}

		cmd.Println(resp)
		return nil
	}

	return rootCmd
}
