package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"

	"github.com/arloliu/coil/codec"
	"github.com/arloliu/coil/cost"
	"github.com/arloliu/coil/format"
	"github.com/arloliu/coil/registry"
	"github.com/arloliu/coil/tree"
	"github.com/arloliu/coil/valuemap"
)

const (
	flagIn           = "in"
	flagOut          = "out"
	flagTypes        = "types"
	flagIndent       = "indent"
	flagTokenizer    = "tokenizer"
	flagMinFrequency = "min-frequency"
	flagCompression  = "compression"
	flagStrict       = "strict"

	tokenizerAuto = "auto"
)

func inFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagIn,
		Aliases: []string{"i"},
		Usage:   "input JSON file. Defaults to STDIN.",
	}
}

func outFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagOut,
		Aliases: []string{"o"},
		Usage:   "output JSON file. Defaults to STDOUT.",
	}
}

func typesFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagTypes,
		Aliases: []string{"t"},
		Value:   registry.DefaultFileName,
		Usage:   "type registry file",
	}
}

func indentFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  flagIndent,
		Usage: "pretty-print the output JSON",
	}
}

func tokenizerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagTokenizer,
		Usage: `BPE encoding used to price tables, e.g. "o200k_base", or "auto" to try the default encoding and fall back to a length approximation. Defaults to the approximation.`,
	}
}

func minFrequencyFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  flagMinFrequency,
		Value: valuemap.DefaultMinFrequency,
		Usage: "repetitions needed before a value gets a value-map token",
	}
}

func newLogger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelInfo
	if cmd.Root().Bool("verbose") {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(cmd.Root().ErrWriter, &slog.HandlerOptions{Level: level}))
}

func encoderOptions(cmd *cli.Command, logger *slog.Logger) ([]codec.EncoderOption, error) {
	opts := []codec.EncoderOption{
		codec.WithMinFrequency(cmd.Int(flagMinFrequency)),
		codec.WithLogger(logger),
	}

	switch name := cmd.String(flagTokenizer); name {
	case "":
	case tokenizerAuto:
		est := cost.DefaultEstimator(cost.DefaultEncoding)
		logger.Debug("tokenizer selected", slog.String("estimator", est.Name()))
		opts = append(opts, codec.WithEstimator(est))
	default:
		est, err := cost.NewTiktokenEstimator(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, codec.WithEstimator(est))
	}

	return opts, nil
}

func readInput(cmd *cli.Command) (any, error) {
	var data []byte
	var err error

	if path := cmd.String(flagIn); path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(cmd.Root().Reader)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}

	return tree.Parse(data)
}

func writeOutput(cmd *cli.Command, v any) error {
	var data []byte
	var err error

	if cmd.Bool(flagIndent) {
		data, err = tree.MarshalIndent(v, "  ")
	} else {
		data, err = tree.Marshal(v)
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path := cmd.String(flagOut); path != "" {
		return errors.Wrap(os.WriteFile(path, data, 0o644), "write output")
	}
	_, err = cmd.Root().Writer.Write(data)

	return errors.Wrap(err, "write output")
}

func typesStore(cmd *cli.Command, comp format.CompressionType) *registry.FileStore {
	return registry.NewFileStore(cmd.String(flagTypes), registry.WithCompression(comp))
}
