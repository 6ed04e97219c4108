// Package exporter renders extraction datasets to CSV and xlsx. Both
// writers stream to an io.Writer so the HTTP export endpoint and the batch
// CLI share them. Absent values are written as empty cells, never as zero.
package exporter
