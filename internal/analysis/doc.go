// Package analysis characterizes sampled cloth runs.
//
//   - [PowerSpectrum]: magnitude spectrum of a series with its mean removed
//   - [DominantFrequency]: strongest oscillation frequency of a series
//   - [SettleTime]: time after which a series stays within a band of its final value
//   - [Summarize]: all of the above for the mean height of a run
//
// A hanging cloth swings with a frequency set by its spring constant and
// mass, and the damping factor decides how quickly it settles:
//
//	s, err := analysis.Summarize(result.Times(), result.Heights(), 0.01)
//	if err == nil {
//	    fmt.Printf("%.2f Hz, settles after %.2fs\n", s.Frequency, s.SettleTime)
//	}
package analysis
