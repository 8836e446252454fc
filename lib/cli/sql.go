// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

const (
	parsePrefix       = "/api/parse"
	fingerprintPrefix = "/api/fingerprint"
	dialectsPrefix    = "/api/dialects"
)

func GetParseCmd(ctx *Context) *cobra.Command {
	parseCmd := &cobra.Command{
		Use:   "parse [sql]",
		Short: "parse SQL into a JSON syntax tree, reading stdin if no SQL is given",
	}
	dialect := parseCmd.Flags().String("dialect", "generic", "SQL dialect")
	noCache := parseCmd.Flags().Bool("no-cache", false, "bypass the server cache")
	parseCmd.RunE = func(cmd *cobra.Command, args []string) error {
		sql, err := readSQL(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		body, err := json.Marshal(map[string]any{
			"sql":      sql,
			"dialect":  *dialect,
			"no_cache": *noCache,
		})
		if err != nil {
			return err
		}
		resp, err := doRequest(cmd.Context(), ctx, http.MethodPost, parsePrefix, body)
		if err != nil {
			return err
		}

		cmd.Println(resp)
		return nil
	}
	return parseCmd
}

func GetFingerprintCmd(ctx *Context) *cobra.Command {
	fpCmd := &cobra.Command{
		Use:   "fingerprint [sql]",
		Short: "fingerprint SQL, reading stdin if no SQL is given",
	}
	dialect := fpCmd.Flags().String("dialect", "generic", "SQL dialect")
	maxInValues := fpCmd.Flags().Int("max-in-values", 0, "keep at most this many values of IN lists, 0 keeps all")
	fpCmd.RunE = func(cmd *cobra.Command, args []string) error {
		sql, err := readSQL(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		req := map[string]any{
			"sql":     sql,
			"dialect": *dialect,
		}
		// Unset means the server default.
		if cmd.Flags().Changed("max-in-values") {
			req["max_in_values"] = *maxInValues
		}
		body, err := json.Marshal(req)
		if err != nil {
			return err
		}
		resp, err := doRequest(cmd.Context(), ctx, http.MethodPost, fingerprintPrefix, body)
		if err != nil {
			return err
		}

		cmd.Println(resp)
		return nil
	}
	return fpCmd
}

func GetDialectsCmd(ctx *Context) *cobra.Command {
	dialectsCmd := &cobra.Command{
		Use:   "dialects",
		Short: "list supported dialects",
	}
	dialectsCmd.RunE = func(cmd *cobra.Command, args []string) error {
		resp, err := doRequest(cmd.Context(), ctx, http.MethodGet, dialectsPrefix, nil)
		if err != nil {
			return err
		}

		cmd.Println(resp)
		return nil
	}
	return dialectsCmd
}
