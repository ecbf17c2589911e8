package commands

import (
	"github.com/urfave/cli/v3"
)

// NewApp creates the coil CLI app.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:                  "coil",
		Usage:                 "Compact JSON record arrays into token-efficient tables",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log per-table decisions to STDERR",
			},
		},
		Commands: []*cli.Command{
			NewEncodeCommand(),
			NewDecodeCommand(),
			NewVerifyCommand(),
		},
	}
}
