// Package timeseries implements the RedisTimeSeries commands (TS.*).
//
// Each command has a pure constructor returning a command.Cmd, usable in a
// transaction or with command.Do, and a method on Commands that runs it:
//
//	ts := client.TS()
//	_, err := ts.Add(ctx, "temperature", timeseries.Now, 21.5, &timeseries.AddOptions{
//	    Labels: timeseries.Labels{"room": "kitchen"},
//	})
//
//	series, err := ts.MRangeWithLabels(ctx, timeseries.Start, timeseries.End,
//	    []string{"room=kitchen"}, &timeseries.MRangeWithLabelsOptions{
//	        MRangeOptions: timeseries.MRangeOptions{
//	            RangeOptions: timeseries.RangeOptions{
//	                Aggregation: &timeseries.Aggregation{Type: timeseries.AggregationAvg, TimeBucket: 60_000},
//	            },
//	        },
//	    })
//
// Zero-valued options are omitted from the command. Range clauses are always
// written in the order FILTER_BY_TS, FILTER_BY_VALUE, COUNT, ALIGN,
// AGGREGATION, and multi-series filters always precede GROUPBY.
package timeseries
