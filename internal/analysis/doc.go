// Package analysis inspects recorded channels of a run.
//
//   - [Spectrum]: windowed magnitude spectrum of a channel
//   - [DominantFrequency]: frequency of the strongest non-DC bin
//
// A swinging pendulum shows up as a single peak:
//
//	x, _ := result.Channel("bob.x")
//	f, err := analysis.DominantFrequency(x, dt)
package analysis
