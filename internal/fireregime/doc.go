// Package fireregime derives per-pixel fire-regime statistics from a yearly
// series of burned-area rasters.
//
// A run has two stages over the same grid. The occurrence stage thresholds
// every year (value > 0 means fire), counts fire years per pixel and derives
// the fire return interval (FRI). The interval stage rebuilds the yearly
// sequence of every ever-burned pixel, run-length encodes it and reduces the
// unburnt runs to minimum, mean and maximum inter-fire intervals.
//
// Processor drives both stages tile by tile and writes four rasters:
//
//	fire_recurrence_interval.tif  float32, count / denominator
//	minimum_return.tif            integer years
//	maximum_return.tif            integer years
//	mean_return.tif               integer years
//
// Pixels that never burned are zero in every output.
package fireregime
