// Package exporter writes the cleaned pull data table to CSV.
//
// The file is always overwritten, the header row comes first and no index
// column is added, which is the layout Survey123 expects for pulldata()
// lookups:
//
//	w := exporter.NewCSVWriter(logger, false)
//	n, err := w.WriteTable("data/MineralsPulldata.csv", t)
package exporter
