// ABOUTME: One-pole level smoothing between analysis and encoding
// ABOUTME: Provides the smoothed-level field the sync wire format carries
package dsp

// DefaultSmoothing is the weight given to each new raw level.
const DefaultSmoothing = 0.2

// LevelSmoother carries a moving average of the raw level across
// chunks. It belongs to the pipeline, keeping Analyze pure per chunk.
type LevelSmoother struct {
	alpha float64
	level float64
}

// NewLevelSmoother creates a smoother with the given new-sample
// weight. Weights outside (0, 1] fall back to DefaultSmoothing.
func NewLevelSmoother(alpha float64) *LevelSmoother {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultSmoothing
	}
	return &LevelSmoother{alpha: alpha}
}

// Next folds one raw level into the moving average and returns it.
func (s *LevelSmoother) Next(raw float64) float64 {
	s.level = (1-s.alpha)*s.level + s.alpha*raw
	return s.level
}

// Level returns the current smoothed level without advancing it.
func (s *LevelSmoother) Level() float64 {
	return s.level
}
