// Package timeseries provides time series data structures and utilities.
//
// A Series is an ordered sequence of (timestamp, value) pairs. Missing
// observations are NaN and are kept in place so that positions stay aligned
// with the date index. Every transformation returns a new Series; inputs are
// never modified.
//
// # Creating a Series
//
//	values := []float64{100, 102, 105, 103, 108, 110}
//	series := timeseries.New(values)
//
// # Differencing
//
//	diff := series.Diff()      // same length, first value is NaN
//	valid := diff.DropNaN()    // the values a statistical test should see
//	twice := series.DiffN(2)   // first two values are NaN
//
// # Alignment
//
// Operator series are merged on their dates:
//
//	merged := ncg.Add(gaspool, 0)                    // union of dates, gaps count as 0
//	total := timeseries.Concat("total", merged, the) // append and sort
//
// Several series can be laid side by side in a Frame:
//
//	frame, err := timeseries.Align(timeseries.JoinInner, total, temperature)
//	col, err := frame.Column("total")
//
// # CSV
//
//	opts := &timeseries.CSVOptions{
//	    DateColumn:  "date",
//	    ValueColumn: "value",
//	    DateFormat:  "2006-01-02",
//	    HasHeader:   true,
//	    Delimiter:   ',',
//	}
//	series, err := timeseries.LoadCSVFromReader(reader, opts)
//	err = timeseries.WriteCSV(w, frame, "2006-01-02")
package timeseries
