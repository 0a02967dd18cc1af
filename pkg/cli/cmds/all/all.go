// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/fbrpc/pkg/cli/cmds/lcd"
)
