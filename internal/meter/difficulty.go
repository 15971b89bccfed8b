package meter

// #region adjust

// AdjustDifficulty moves the difficulty scalar one increment up on a correct
// answer, down on an incorrect one, clamped to the configured band.
func AdjustDifficulty(cfg Config, current float64, correct bool) float64 {
	if correct {
		current += cfg.DifficultyIncrement
	} else {
		current -= cfg.DifficultyIncrement
	}
	return clamp(current, cfg.DifficultyMin, cfg.DifficultyMax)
}

// #endregion

// #region window

// DifficultyWindow tracks the most recent answers and derives a multiplier
// applied to trigger values: sustained strong performance pushes trigger
// intensity up, sustained struggle backs it off.
type DifficultyWindow struct {
	size    int
	correct []bool
	times   []float64
}

// NewDifficultyWindow creates a window over the last size answers.
func NewDifficultyWindow(size int) *DifficultyWindow {
	if size <= 0 {
		size = 4
	}
	return &DifficultyWindow{size: size}
}

// Add records one answered question.
func (w *DifficultyWindow) Add(correct bool, questionTime float64) {
	w.correct = append(w.correct, correct)
	w.times = append(w.times, questionTime)
	if len(w.correct) > w.size {
		w.correct = w.correct[1:]
		w.times = w.times[1:]
	}
}

func (w *DifficultyWindow) stats() (correctCount int, avgTime float64) {
	for _, c := range w.correct {
		if c {
			correctCount++
		}
	}
	if len(w.times) == 0 {
		return correctCount, 0
	}
	var sum float64
	for _, t := range w.times {
		sum += t
	}
	return correctCount, sum / float64(len(w.times))
}

// Multiplier returns the trigger-value multiplier for the current window.
func (w *DifficultyWindow) Multiplier() float64 {
	n := len(w.correct)
	correctCount, avgTime := w.stats()

	// Performing too well: raise intensity.
	if n >= 3 && correctCount >= 3 && avgTime < 3.5 {
		if correctCount == w.size {
			return 1.15
		}
		return 1.10
	}

	// Struggling: back off.
	if n >= 2 && (correctCount <= 1 || avgTime > 5.0) {
		if correctCount == 0 {
			return 0.80
		}
		return 0.90
	}

	return 1.0
}

// #endregion
