// Package demand turns raw workbook grids into normalized monthly demand
// series and forward forecasts.
//
// The pipeline runs in four stages over one workbook snapshot:
//
// Detector: scans every sheet for product blocks — a product code in the
// leading columns plus the column region holding its monthly values — or
// for long-format tables with product/month/demand columns.
//
// Extractor: builds one ordered, gap-aware Series per block using the month
// and value normalizers. Missing data stays missing: an empty or
// unparseable cell becomes an absent value, never zero.
//
// Forecaster: produces forward predictions with a chained moving average
// over the most recent known values. With no history at all, every
// prediction is absent — the engine never invents a number.
//
// Builder: merges the per-product series into overall totals and the flat
// chart dataset consumed by the transport and export layers.
//
// Every stage is a pure, synchronous transformation with no shared state
// across invocations, so concurrent extractions need no coordination.
package demand
