package measure

import (
	"sync"
)

// Session owns the objects measured on one image together with the current
// calibration. It is safe for concurrent use.
//
// Every object returned by a Session is a copy; callers cannot mutate the
// collection except through Session methods.
type Session struct {
	mu          sync.RWMutex
	objects     []*Object
	calibration Calibration
	created     int // objects ever added, drives palette order
	named       int // non-coin objects ever named, drives "Object n"
	diameterMM  float64
}

// NewSession returns an empty, uncalibrated session for the standard coin.
func NewSession() *Session {
	return NewSessionWithDiameter(CoinDiameterMM)
}

// NewSessionWithDiameter returns an empty session whose reference coin
// measures diameterMM millimetres.
func NewSessionWithDiameter(diameterMM float64) *Session {
	if !(diameterMM > 0) {
		diameterMM = CoinDiameterMM
	}
	return &Session{diameterMM: diameterMM}
}

// Objects returns copies of every object, coin first.
func (s *Session) Objects() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Object, len(s.objects))
	for i, o := range s.objects {
		out[i] = o.Clone()
	}
	return out
}

// Calibration returns the current scale state.
func (s *Session) Calibration() Calibration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calibration
}

// Get returns a copy of the object with the given ID.
func (s *Session) Get(id string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrObjectNotFound
	}
	return s.objects[i].Clone(), nil
}

// ReplaceDetected swaps the traced objects of the session for objs, the
// result of a new detection pass. Manual objects are kept. Detected objects
// keep the names the detector gave them and are scaled with the current
// calibration, if any. A coin among objs is kept as the coin reference only
// when the session is not calibrated yet; use CalibrateWithCoin to adopt it.
func (s *Session) ReplaceDetected(objs []*Object) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*Object, 0, len(objs)+len(s.objects))
	for _, o := range s.objects {
		if o.Kind() == KindManual || (o.IsCoin && s.calibration.Valid()) {
			next = append(next, o)
		}
	}
	generic := 0
	for _, o := range objs {
		if o.IsCoin && s.calibration.Valid() {
			continue
		}
		if !o.IsCoin {
			generic++
		}
		c := ApplyScale(o.Clone(), s.calibration.PPM)
		if c.Color == "" {
			c.Color = PaletteColor(s.created)
		}
		s.created++
		next = append(next, c)
	}
	if generic > s.named {
		s.named = generic
	}
	s.objects = coinFirst(next)
}

// Add stores obj, filling in a name and colour when they are empty, and scales
// it with the current calibration. The stored copy is returned.
func (s *Session) Add(obj *Object) *Object {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := obj.Clone()
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.Name == "" {
		if c.IsCoin {
			c.Name = CoinName
		} else {
			s.named++
			c.Name = ObjectName(s.named)
		}
	}
	if c.Color == "" {
		c.Color = PaletteColor(s.created)
	}
	s.created++
	if !c.IsCoin {
		c = ApplyScale(c, s.calibration.PPM)
	}
	s.objects = append(s.objects, c)
	return c.Clone()
}

// Rename changes the label of an object. Measurements are unaffected.
func (s *Session) Rename(id, name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrObjectNotFound
	}
	c := s.objects[i].Clone()
	c.Name = name
	s.objects[i] = c
	return nil
}

// Remove deletes an object from the session. Removing the coin does not reset
// the calibration.
func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrObjectNotFound
	}
	s.objects = append(s.objects[:i:i], s.objects[i+1:]...)
	return nil
}

// CalibrateWithCoin adopts a detected coin as the reference and recalibrates
// every object from its pixel diameter.
func (s *Session) CalibrateWithCoin(coin *Object) (Calibration, error) {
	if coin == nil {
		return Calibration{}, &ValidationError{Field: "coin", Reason: "must not be nil"}
	}
	d := coin.PixelDiameter()
	ppm, err := ScaleForDiameter(d, s.diameterMM)
	if err != nil {
		return Calibration{}, err
	}
	ref := coin.Clone()
	ref.IsCoin = true
	ref.Name = CoinName
	return s.recalibrate(Calibration{PPM: ppm, CoinPixelDiameter: d}, ref), nil
}

// CalibrateFromPoints runs a manual two-point calibration: the distance
// between a and b is taken as the coin diameter. The coin reference becomes a
// synthetic object centred between the two points.
func (s *Session) CalibrateFromPoints(a, b Point) (Calibration, error) {
	d := Distance(a, b)
	ppm, err := ScaleForDiameter(d, s.diameterMM)
	if err != nil {
		return Calibration{}, err
	}
	mid := Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	box := BoundingBox{X: mid.X - d/2, Y: mid.Y - d/2, Width: d, Height: d}
	return s.recalibrate(Calibration{PPM: ppm, CoinPixelDiameter: d}, NewSyntheticCoin(d, box)), nil
}

// CalibrateFromDistance calibrates from a coin diameter measured elsewhere.
// The synthetic coin reference has no location and sits at the origin.
func (s *Session) CalibrateFromDistance(pixelDistance float64) (Calibration, error) {
	ppm, err := ScaleForDiameter(pixelDistance, s.diameterMM)
	if err != nil {
		return Calibration{}, err
	}
	box := BoundingBox{Width: pixelDistance, Height: pixelDistance}
	return s.recalibrate(Calibration{PPM: ppm, CoinPixelDiameter: pixelDistance}, NewSyntheticCoin(pixelDistance, box)), nil
}

// Recalibrate reapplies ppm to every non-coin object without touching the coin
// reference. A non-positive ppm is rejected.
func (s *Session) Recalibrate(ppm float64) (Calibration, error) {
	if !validScale(ppm) {
		return Calibration{}, &ValidationError{Field: "ppm", Reason: "must be a positive number"}
	}
	return s.recalibrate(Calibration{PPM: ppm, CoinPixelDiameter: ppm * s.diameterMM}, nil), nil
}

// recalibrate builds the rescaled collection aside and swaps it in, so the
// session moves from one scale to the next in a single step.
func (s *Session) recalibrate(cal Calibration, coin *Object) Calibration {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*Object, 0, len(s.objects)+1)
	if coin != nil {
		if coin.Color == "" {
			coin.Color = PaletteColor(s.created)
			s.created++
		}
		next = append(next, ApplyScale(coin, cal.PPM))
	}
	for _, o := range s.objects {
		if o.IsCoin {
			if coin == nil {
				next = append(next, ApplyScale(o, cal.PPM))
			}
			continue
		}
		next = append(next, ApplyScale(o, cal.PPM))
	}
	s.objects = coinFirst(next)
	s.calibration = cal
	return cal
}

// Reset discards every object and the calibration, as when the image is
// discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = nil
	s.calibration = Calibration{}
	s.created = 0
	s.named = 0
}

func (s *Session) indexOf(id string) int {
	for i, o := range s.objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// coinFirst moves coin objects to the front, keeping the relative order of
// everything else.
func coinFirst(objs []*Object) []*Object {
	out := make([]*Object, 0, len(objs))
	for _, o := range objs {
		if o.IsCoin {
			out = append(out, o)
		}
	}
	for _, o := range objs {
		if !o.IsCoin {
			out = append(out, o)
		}
	}
	return out
}
