// Package search implements the RediSearch commands (FT.*).
//
//	ft := client.FT()
//	err := ft.Create(ctx, "idx:users", search.Schema{
//	    {Name: "$.name", Type: search.FieldText, Unf: true},
//	    {Name: "$.age", As: "age", Type: search.FieldNumeric},
//	}, &search.CreateOptions{On: search.OnJSON, Prefix: []string{"users:"}})
//
//	reply, err := ft.Aggregate(ctx, "idx:users", "*", &search.AggregateOptions{
//	    Steps: []search.Step{search.GroupBy{
//	        Reducers: []search.Reducer{{Type: search.ReduceAvg, Property: "age", As: "averageAge"}},
//	    }},
//	})
//	// reply.Results[0]["averageAge"] == "27.5"
//
// Aggregation values are returned as the server formats them; this package
// does not guess numeric types.
package search
