// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"net/http"

	"github.com/spf13/cobra"
)

const (
	cachePrefix = "/api/debug/cache"
)

func GetCacheCmd(ctx *Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cache",
		Short: "",
	}

	// get stats
	{
		getCache := &cobra.Command{
			Use: "get",
		}
		getCache.RunE = func(cmd *cobra.Command, args []string) error {
			resp, err := doRequest(cmd.Context(), ctx, http.MethodGet, cachePrefix, nil)
			if err != nil {
				return err
			}

			cmd.Println(resp)
			return nil
		}
		rootCmd.AddCommand(getCache)
	}

	// purge
	{
		purgeCache := &cobra.Command{
			Use: "purge",
		}
		purgeCache.RunE = func(cmd *cobra.Command, args []string) error {
			resp, err := doRequest(cmd.Context(), ctx, http.MethodPost, cachePrefix+"/purge", nil)
			if err != nil {
				return err
			}

			cmd.Println(resp)
			return nil
		}
		rootCmd.AddCommand(purgeCache)
	}

	return rootCmd
}
