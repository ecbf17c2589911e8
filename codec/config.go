package codec

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/arloliu/coil/cost"
	"github.com/arloliu/coil/internal/options"
	"github.com/arloliu/coil/valuemap"
)

// EncoderConfig holds the settings shared by every Encode call of one Encoder.
type EncoderConfig struct {
	model        *cost.Model
	minFrequency int
	logger       *slog.Logger
}

// EncoderOption is a functional option for configuring an Encoder.
type EncoderOption = options.Option[*EncoderConfig]

func newEncoderConfig() *EncoderConfig {
	return &EncoderConfig{
		model:        cost.NewModel(nil),
		minFrequency: valuemap.DefaultMinFrequency,
		logger:       discardLogger(),
	}
}

// WithEstimator sets the token estimator used by the accept/skip decision.
// Default is the four-characters-per-token approximation.
func WithEstimator(est cost.Estimator) EncoderOption {
	return options.NoError(func(cfg *EncoderConfig) {
		cfg.model = cost.NewModel(est)
	})
}

// WithMinFrequency sets how often a value must repeat within one table to
// get a value-map token. It must be at least 2, the default.
func WithMinFrequency(n int) EncoderOption {
	return options.New(func(cfg *EncoderConfig) error {
		if n < valuemap.DefaultMinFrequency {
			return errors.Newf("min frequency must be >= %d, got %d", valuemap.DefaultMinFrequency, n)
		}
		cfg.minFrequency = n

		return nil
	})
}

// WithLogger sets the logger receiving per-table accept/skip decisions at
// debug level. Output is discarded by default.
func WithLogger(logger *slog.Logger) EncoderOption {
	return options.NoError(func(cfg *EncoderConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	})
}

// DecoderConfig holds the settings of a Decoder.
type DecoderConfig struct {
	strict bool
	logger *slog.Logger
}

// DecoderOption is a functional option for configuring a Decoder.
type DecoderOption = options.Option[*DecoderConfig]

func newDecoderConfig() *DecoderConfig {
	return &DecoderConfig{logger: discardLogger()}
}

// WithStrictRegistry makes a column missing from the registry a decode error
// instead of decoding it as a string.
func WithStrictRegistry(strict bool) DecoderOption {
	return options.NoError(func(cfg *DecoderConfig) {
		cfg.strict = strict
	})
}

// WithDecoderLogger sets the logger receiving registry fallbacks at debug
// level. Output is discarded by default.
func WithDecoderLogger(logger *slog.Logger) DecoderOption {
	return options.NoError(func(cfg *DecoderConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
