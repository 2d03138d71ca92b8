package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/coin-measure-mcp/internal/imaging"
	"github.com/ironsheep/coin-measure-mcp/internal/measure"
	"github.com/ironsheep/coin-measure-mcp/internal/vision"
)

// Pass names reported to observers and logs.
const (
	PassGeneric = "generic"
	PassCoin    = "coin"
)

// Observer receives detection statistics.
type Observer interface {
	ObservePass(pass string, elapsed time.Duration, accepted int)
	ObserveRejection(reason string)
	ObserveDetection(elapsed time.Duration, objects int, coinFound bool)
}

type nopObserver struct{}

func (nopObserver) ObservePass(string, time.Duration, int)    {}
func (nopObserver) ObserveRejection(string)                   {}
func (nopObserver) ObserveDetection(time.Duration, int, bool) {}

// Detector runs the detection pipeline on images. It is safe for concurrent
// use; each call works on its own buffers.
type Detector struct {
	cfg      Config
	gate     *vision.Gate
	analyzer *Analyzer
	log      zerolog.Logger
	obs      Observer
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger used for pass summaries and rejections.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Detector) { d.log = l }
}

// WithObserver sets the receiver of detection statistics.
func WithObserver(o Observer) Option {
	return func(d *Detector) {
		if o != nil {
			d.obs = o
		}
	}
}

// New returns a detector that waits on gate for its processing runtime.
func New(cfg Config, gate *vision.Gate, opts ...Option) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	if gate == nil {
		return nil, errors.New("detector requires a vision gate")
	}
	d := &Detector{
		cfg:      cfg,
		gate:     gate,
		analyzer: NewAnalyzer(cfg),
		log:      zerolog.Nop(),
		obs:      nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the detector's configuration.
func (d *Detector) Config() Config { return d.cfg }

// Gate returns the gate the detector waits on.
func (d *Detector) Gate() *vision.Gate { return d.gate }

// NewGate returns a gate whose runtime is built from cfg's preprocess
// settings.
func NewGate(cfg Config, opts ...vision.Option) *vision.Gate {
	var coin *imaging.PreprocessConfig
	if cfg.CoinPass {
		c := cfg.Coin
		coin = &c
	}
	return vision.NewGate(vision.Initializer(cfg.Generic, coin), opts...)
}

// Detect finds the measurable objects in img.
//
// The coin, if any, comes first and is named "Coin"; generic objects follow
// in detection order as "Object 1", "Object 2", and so on. When the object
// pass finds no coin, the dedicated coin pass runs and any object whose
// centre falls inside the coin it finds is dropped as a duplicate.
//
// An image with no accepted contours yields an empty slice, not an error.
// Errors come only from the runtime gate, the context or preprocessing.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]*measure.Object, error) {
	start := time.Now()
	rt, err := d.gate.Wait(ctx)
	if err != nil {
		return nil, err
	}

	coin, generic, err := d.classify(ctx, rt, img)
	if err != nil {
		return nil, err
	}

	objects := make([]*measure.Object, 0, len(generic)+1)
	if coin != nil {
		obj := coin.Object()
		obj.IsCoin = true
		obj.Name = measure.CoinName
		obj.Color = measure.PaletteColor(len(objects))
		objects = append(objects, obj)
	}
	for i, c := range generic {
		obj := c.Object()
		obj.Name = measure.ObjectName(i + 1)
		obj.Color = measure.PaletteColor(len(objects))
		objects = append(objects, obj)
	}

	elapsed := time.Since(start)
	d.obs.ObserveDetection(elapsed, len(objects), coin != nil)
	d.log.Info().
		Int("objects", len(objects)).
		Bool("coin", coin != nil).
		Dur("elapsed", elapsed).
		Msg("detection complete")
	return objects, nil
}

// CoinResult is the outcome of a coin-only detection. Not finding a coin is a
// normal outcome.
type CoinResult struct {
	Found         bool            `json:"found"`
	PixelDiameter float64         `json:"pixel_diameter,omitempty"`
	Coin          *measure.Object `json:"coin,omitempty"`
}

// DetectCoinOnly looks for the reference coin alone, for use as a
// calibration source.
func (d *Detector) DetectCoinOnly(ctx context.Context, img image.Image) (CoinResult, error) {
	rt, err := d.gate.Wait(ctx)
	if err != nil {
		return CoinResult{}, err
	}
	coin, _, err := d.classify(ctx, rt, img)
	if err != nil {
		return CoinResult{}, err
	}
	if coin == nil {
		d.log.Info().Msg("no coin found")
		return CoinResult{}, nil
	}

	obj := coin.Object()
	obj.IsCoin = true
	obj.Name = measure.CoinName
	obj.Color = measure.PaletteColor(0)
	return CoinResult{Found: true, PixelDiameter: obj.PixelDiameter(), Coin: obj}, nil
}

// classify runs the object pass and, if it finds no coin, the coin pass.
func (d *Detector) classify(ctx context.Context, rt *vision.Runtime, img image.Image) (*Candidate, []*Candidate, error) {
	generic, err := d.pass(ctx, PassGeneric, rt.Generic, img)
	if err != nil {
		return nil, nil, err
	}

	if i := bestCoin(generic); i >= 0 {
		coin := generic[i]
		rest := d.keepObjects(PassGeneric, append(generic[:i:i], generic[i+1:]...))
		return coin, rest, nil
	}
	if !d.cfg.CoinPass || rt.Coin == nil {
		return nil, generic, nil
	}

	coinCands, err := d.pass(ctx, PassCoin, rt.Coin, img)
	if err != nil {
		return nil, nil, err
	}
	i := bestCoin(coinCands)
	if i < 0 {
		return nil, generic, nil
	}
	coin := coinCands[i]

	kept := generic[:0:0]
	for _, c := range generic {
		if coin.Box.Contains(c.Box.Center()) {
			d.log.Debug().Float64("area", c.Area).Msg("dropping object covered by coin")
			continue
		}
		kept = append(kept, c)
	}
	return coin, kept, nil
}

// pass binarizes img with pre and analyzes every outer contour.
func (d *Detector) pass(ctx context.Context, name string, pre *imaging.Preprocessor, img image.Image) ([]*Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	mask, err := pre.Mask(img)
	if err != nil {
		return nil, fmt.Errorf("%s pass: %w", name, err)
	}
	defer mask.Release()

	b := img.Bounds()
	contours := FindContours(mask)
	cands := make([]*Candidate, 0, len(contours))
	for _, c := range contours {
		cand, err := d.analyzer.Analyze(c, b.Dx(), b.Dy())
		if err != nil {
			var re *RejectError
			if errors.As(err, &re) {
				d.obs.ObserveRejection(re.Reason)
			}
			d.log.Debug().Str("pass", name).Err(err).Int("pixels", c.Pixels).Msg("contour rejected")
			continue
		}
		cands = append(cands, cand)
	}

	elapsed := time.Since(start)
	d.obs.ObservePass(name, elapsed, len(cands))
	d.log.Debug().
		Str("pass", name).
		Int("contours", len(contours)).
		Int("accepted", len(cands)).
		Dur("elapsed", elapsed).
		Msg("pass complete")
	return cands, nil
}

// keepObjects drops candidates that were kept only as possible coins and
// lost to the chosen coin.
func (d *Detector) keepObjects(pass string, cands []*Candidate) []*Candidate {
	kept := cands[:0]
	for _, c := range cands {
		if c.BelowAreaMin {
			d.obs.ObserveRejection(ReasonAreaMin)
			d.log.Debug().Str("pass", pass).Float64("area", c.Area).Msg("contour rejected: runner-up coin below area floor")
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// bestCoin returns the index of the coin-like candidate with the highest
// circularity, or -1.
func bestCoin(cands []*Candidate) int {
	best := -1
	for i, c := range cands {
		if !c.CoinLike {
			continue
		}
		if best < 0 || c.Circularity > cands[best].Circularity {
			best = i
		}
	}
	return best
}

// BatchResult is the detection outcome for one image of a batch.
type BatchResult struct {
	Objects []*measure.Object
	Err     error
}

// DetectBatch runs Detect on every image with at most workers images in
// flight. Results are in input order; one image failing does not affect the
// others.
func (d *Detector) DetectBatch(ctx context.Context, imgs []image.Image, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(imgs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, img := range imgs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, img image.Image) {
			defer wg.Done()
			defer func() { <-sem }()
			objs, err := d.Detect(ctx, img)
			results[i] = BatchResult{Objects: objs, Err: err}
		}(i, img)
	}
	wg.Wait()
	return results
}
