package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/arloliu/coil/codec"
	"github.com/arloliu/coil/format"
)

// NewEncodeCommand returns a cli.Command for "coil encode".
func NewEncodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode the record arrays of a JSON document as compact tables",
		UsageText: `coil encode [options]`,
		Description: `The encode command rewrites every array of similar records that gets
cheaper as a compact table, and writes the column types to a registry file.

$ coil encode -i orders.json -o orders.coil.json -t coil_types.json

The registry can be compressed:

$ coil encode -i orders.json -t types.bin --compression zstd`,
		Flags: []cli.Flag{
			inFlag(),
			outFlag(),
			typesFlag(),
			indentFlag(),
			tokenizerFlag(),
			minFrequencyFlag(),
			&cli.StringFlag{
				Name:    flagCompression,
				Aliases: []string{"c"},
				Value:   "none",
				Usage:   "registry compression: none, zstd, s2 or lz4",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			comp, err := format.ParseCompression(cmd.String(flagCompression))
			if err != nil {
				return err
			}

			logger := newLogger(cmd)
			opts, err := encoderOptions(cmd, logger)
			if err != nil {
				return err
			}
			enc, err := codec.NewEncoder(opts...)
			if err != nil {
				return err
			}

			input, err := readInput(cmd)
			if err != nil {
				return err
			}
			res, err := enc.Encode(input)
			if err != nil {
				return err
			}

			store := typesStore(cmd, comp)
			regStats, err := store.SaveWithStats(ctx, res.Registry)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, res.Tree); err != nil {
				return err
			}

			logger.Debug("encode finished",
				slog.Int("tables_seen", res.Stats.TablesSeen),
				slog.Int("tables_encoded", res.Stats.TablesEncoded),
				slog.Int("tokens_saved", res.Stats.Saved()),
				slog.String("types", store.Path()),
				slog.String("types_compression", regStats.Algorithm.String()),
				slog.Int64("types_bytes", regStats.CompressedSize),
				slog.String("types_savings", fmt.Sprintf("%.1f%%", regStats.SpaceSavings())))

			return nil
		},
	}
}
