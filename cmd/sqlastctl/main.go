// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pingcap/sqlast/lib/cli"
	"github.com/pingcap/sqlast/lib/util/cmd"
	"github.com/pingcap/sqlast/pkg/util/versioninfo"
)

func main() {
	rootCmd := cli.GetRootCmd()
	rootCmd.Version = fmt.Sprintf("%s, commit %s", versioninfo.SQLAstVersion, versioninfo.SQLAstGitHash)
	rootCmd.Use = strings.Replace(rootCmd.Use, "sqlastctl", os.Args[0], 1)
	cmd.RunRootCommand(rootCmd)
}
