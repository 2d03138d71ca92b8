package vision

import (
	"context"
	"fmt"

	"github.com/ironsheep/coin-measure-mcp/internal/imaging"
)

// Runtime is the initialized processing state shared by all detection calls.
// It is immutable once built.
type Runtime struct {
	// Generic binarizes images for the object pass.
	Generic *imaging.Preprocessor
	// Coin binarizes images for the dedicated coin pass; nil when the coin
	// pass is disabled.
	Coin *imaging.Preprocessor
}

// NewRuntime builds the preprocessors for both passes. A nil coin config
// disables the coin pass.
func NewRuntime(generic imaging.PreprocessConfig, coin *imaging.PreprocessConfig) (*Runtime, error) {
	g, err := imaging.NewPreprocessor(generic)
	if err != nil {
		return nil, fmt.Errorf("generic pass: %w", err)
	}
	rt := &Runtime{Generic: g}
	if coin != nil {
		c, err := imaging.NewPreprocessor(*coin)
		if err != nil {
			return nil, fmt.Errorf("coin pass: %w", err)
		}
		rt.Coin = c
	}
	return rt, nil
}

// Initializer returns an InitFunc that builds a Runtime from the given
// configs, honouring ctx cancellation before work starts.
func Initializer(generic imaging.PreprocessConfig, coin *imaging.PreprocessConfig) InitFunc {
	return func(ctx context.Context) (*Runtime, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return NewRuntime(generic, coin)
	}
}
