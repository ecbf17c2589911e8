package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/arloliu/coil/codec"
	"github.com/arloliu/coil/format"
)

// NewDecodeCommand returns a cli.Command for "coil decode".
func NewDecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Restore a document produced by coil encode",
		UsageText: `coil decode [options]`,
		Description: `The decode command replaces every encoded table with its records, using
the registry file written by the matching encode run.

$ coil decode -i orders.coil.json -t coil_types.json --indent`,
		Flags: []cli.Flag{
			inFlag(),
			outFlag(),
			typesFlag(),
			indentFlag(),
			&cli.BoolFlag{
				Name:  flagStrict,
				Usage: "fail on columns missing from the registry instead of decoding them as strings",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reg, err := typesStore(cmd, format.CompressionNone).Load(ctx)
			if err != nil {
				return err
			}

			dec, err := codec.NewDecoder(reg,
				codec.WithStrictRegistry(cmd.Bool(flagStrict)),
				codec.WithDecoderLogger(newLogger(cmd)))
			if err != nil {
				return err
			}

			input, err := readInput(cmd)
			if err != nil {
				return err
			}
			out, err := dec.Decode(input)
			if err != nil {
				return err
			}

			return writeOutput(cmd, out)
		},
	}
}
