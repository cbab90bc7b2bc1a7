// Package analysis summarizes recorded telemetry columns.
//
//   - [Summarize]: min, max, mean and spread of a column
//   - [PowerSpectrum]: magnitude spectrum of a column
//   - [DominantFrequency]: strongest non-DC frequency of a column
//
// Columns come from storage.Column over a run's telemetry:
//
//	ke := storage.Column(samples, "kinetic_energy")
//	freq := analysis.DominantFrequency(ke, 75)
package analysis
