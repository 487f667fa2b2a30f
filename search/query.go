package search

import (
	"strings"

	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/resp"
)

// SortBy orders results by one field.
type SortBy struct {
	Field      string
	Descending bool
}

// Limit pages the results.
type Limit struct {
	Offset int64
	Num    int64
}

// SearchOptions are the options of FT.SEARCH.
type SearchOptions struct {
	// NoContent returns document ids only.
	NoContent   bool
	Verbatim    bool
	NoStopWords bool
	WithScores  bool
	InKeys      []string
	InFields    []string
	Return      []string
	SortBy      *SortBy
	Limit       *Limit
	Params      map[string]string
	Dialect     int64
}

// Document is one FT.SEARCH result. Value is nil with NoContent; for JSON
// indexes the whole document is under the "$" field.
type Document struct {
	ID    string
	Score float64
	Value map[string]string
}

// SearchReply is the FT.SEARCH reply.
type SearchReply struct {
	Total     int64
	Documents []Document
}

func pushParams(args command.Args, params map[string]string) command.Args {
	if len(params) == 0 {
		return args
	}
	args = append(args, "PARAMS")
	args = args.AppendInt(int64(2 * len(params)))
	return command.PushPairs(args, params)
}

func pushSearchOptions(args command.Args, o *SearchOptions) command.Args {
	if o == nil {
		return args
	}

	args = command.PushFlag(args, "NOCONTENT", o.NoContent)
	args = command.PushFlag(args, "VERBATIM", o.Verbatim)
	args = command.PushFlag(args, "NOSTOPWORDS", o.NoStopWords)
	args = command.PushFlag(args, "WITHSCORES", o.WithScores)
	if len(o.InKeys) > 0 {
		args = command.PushVariadicWithLength(append(args, "INKEYS"), o.InKeys...)
	}
	if len(o.InFields) > 0 {
		args = command.PushVariadicWithLength(append(args, "INFIELDS"), o.InFields...)
	}
	if len(o.Return) > 0 {
		args = command.PushVariadicWithLength(append(args, "RETURN"), o.Return...)
	}
	if o.SortBy != nil {
		args = append(args, "SORTBY", o.SortBy.Field, direction(o.SortBy.Descending))
	}
	if o.Limit != nil {
		args = append(args, "LIMIT")
		args = args.AppendInt(o.Limit.Offset).AppendInt(o.Limit.Num)
	}
	args = pushParams(args, o.Params)
	return command.PushIntOption(args, "DIALECT", o.Dialect)
}

func direction(descending bool) string {
	if descending {
		return "DESC"
	}
	return "ASC"
}

// searchReply decodes [total, id, [score], [fields], ...]. The shape
// depends on NOCONTENT and WITHSCORES.
func searchReply(noContent, withScores bool) command.ReplyFunc[SearchReply] {
	return func(v resp.Value) (SearchReply, error) {
		elems, err := command.Array(v)
		if err != nil {
			return SearchReply{}, err
		}
		if len(elems) == 0 {
			return SearchReply{}, command.NewReplyError("[total, documents...]", v)
		}

		total, err := command.Int(elems[0])
		if err != nil {
			return SearchReply{}, command.NewReplyError("[total, documents...]", v)
		}
		reply := SearchReply{Total: total, Documents: []Document{}}

		stride := 1
		if withScores {
			stride++
		}
		if !noContent {
			stride++
		}

		rest := elems[1:]
		if len(rest)%stride != 0 {
			return SearchReply{}, command.NewReplyError("[total, documents...]", v)
		}

		for i := 0; i < len(rest); i += stride {
			var doc Document
			if doc.ID, err = command.String(rest[i]); err != nil {
				return SearchReply{}, command.NewReplyError("document id", v)
			}

			next := i + 1
			if withScores {
				if doc.Score, err = command.Float(rest[next]); err != nil {
					return SearchReply{}, command.NewReplyError("document score", v)
				}
				next++
			}
			if !noContent {
				// a document deleted since indexing has a null field list
				if !rest[next].IsNull() {
					if doc.Value, err = command.StringMap(rest[next]); err != nil {
						return SearchReply{}, err
					}
				}
			}

			reply.Documents = append(reply.Documents, doc)
		}
		return reply, nil
	}
}

// AggregateOptions are the options of FT.AGGREGATE.
type AggregateOptions struct {
	Verbatim bool
	Steps    []Step
	Params   map[string]string
	Dialect  int64

	// Load lists the document fields to load; "*" loads them all.
	Load []string
}

// Step is one stage of the aggregation pipeline: GroupBy, SortByStep,
// Apply, LimitStep or Filter.
type Step interface {
	appendStep(args command.Args) command.Args
}

// ReducerType is a GROUPBY reduce function.
type ReducerType string

const (
	ReduceCount            ReducerType = "COUNT"
	ReduceCountDistinct    ReducerType = "COUNT_DISTINCT"
	ReduceCountDistinctish ReducerType = "COUNT_DISTINCTISH"
	ReduceSum              ReducerType = "SUM"
	ReduceMin              ReducerType = "MIN"
	ReduceMax              ReducerType = "MAX"
	ReduceAvg              ReducerType = "AVG"
	ReduceStdDev           ReducerType = "STDDEV"
	ReduceQuantile         ReducerType = "QUANTILE"
	ReduceToList           ReducerType = "TOLIST"
	ReduceFirstValue       ReducerType = "FIRST_VALUE"
	ReduceRandomSample     ReducerType = "RANDOM_SAMPLE"
)

// Reducer is one REDUCE clause. Property is the reduced property (without
// or with its "@" prefix); Args are the extra arguments of the function,
// e.g. the quantile of QUANTILE.
type Reducer struct {
	Type     ReducerType
	Property string
	Args     []string
	As       string
}

// GroupBy groups the pipeline rows by properties and reduces each group.
type GroupBy struct {
	Properties []string
	Reducers   []Reducer
}

func (g GroupBy) appendStep(args command.Args) command.Args {
	props := make([]string, len(g.Properties))
	for i, p := range g.Properties {
		props[i] = property(p)
	}
	args = command.PushVariadicWithLength(append(args, "GROUPBY"), props...)

	for _, r := range g.Reducers {
		params := make([]string, 0, 1+len(r.Args))
		if r.Property != "" {
			params = append(params, property(r.Property))
		}
		params = append(params, r.Args...)

		args = append(args, "REDUCE", string(r.Type))
		args = command.PushVariadicWithLength(args, params...)
		args = command.PushStringOption(args, "AS", r.As)
	}
	return args
}

// SortByStep sorts the pipeline rows. Max keeps only the first rows.
type SortByStep struct {
	By  []SortBy
	Max int64
}

func (s SortByStep) appendStep(args command.Args) command.Args {
	params := make([]string, 0, 2*len(s.By))
	for _, by := range s.By {
		params = append(params, property(by.Field), direction(by.Descending))
	}
	args = command.PushVariadicWithLength(append(args, "SORTBY"), params...)
	return command.PushIntOption(args, "MAX", s.Max)
}

// Apply adds a computed property.
type Apply struct {
	Expression string
	As         string
}

func (a Apply) appendStep(args command.Args) command.Args {
	return append(args, "APPLY", a.Expression, "AS", a.As)
}

// LimitStep pages the pipeline rows.
type LimitStep Limit

func (l LimitStep) appendStep(args command.Args) command.Args {
	return append(args, "LIMIT").AppendInt(l.Offset).AppendInt(l.Num)
}

// Filter drops the rows not matching an expression.
type Filter struct {
	Expression string
}

func (f Filter) appendStep(args command.Args) command.Args {
	return append(args, "FILTER", f.Expression)
}

func property(name string) string {
	if strings.HasPrefix(name, "@") {
		return name
	}
	return "@" + name
}

func pushAggregateOptions(args command.Args, o *AggregateOptions) command.Args {
	if o == nil {
		return args
	}

	args = command.PushFlag(args, "VERBATIM", o.Verbatim)
	switch {
	case len(o.Load) == 1 && o.Load[0] == "*":
		args = append(args, "LOAD", "*")
	case len(o.Load) > 0:
		fields := make([]string, len(o.Load))
		for i, f := range o.Load {
			fields[i] = property(f)
		}
		args = command.PushVariadicWithLength(append(args, "LOAD"), fields...)
	}
	for _, step := range o.Steps {
		args = step.appendStep(args)
	}
	args = pushParams(args, o.Params)
	return command.PushIntOption(args, "DIALECT", o.Dialect)
}

// AggregateReply is the FT.AGGREGATE reply. Scalar values are kept as the
// strings the server returns (an average is "27.5", not 27.5); list
// reducers such as TOLIST yield []any.
type AggregateReply struct {
	Total   int64
	Results []map[string]any
}

func transformAggregateReply(v resp.Value) (AggregateReply, error) {
	elems, err := command.Array(v)
	if err != nil {
		return AggregateReply{}, err
	}
	if len(elems) == 0 {
		return AggregateReply{}, command.NewReplyError("[total, rows...]", v)
	}

	total, err := command.Int(elems[0])
	if err != nil {
		return AggregateReply{}, command.NewReplyError("[total, rows...]", v)
	}

	reply := AggregateReply{Total: total, Results: make([]map[string]any, 0, len(elems)-1)}
	for _, row := range elems[1:] {
		fields, err := command.Array(row)
		if err != nil || len(fields)%2 != 0 {
			return AggregateReply{}, command.NewReplyError("rows of name/value pairs", v)
		}

		result := make(map[string]any, len(fields)/2)
		for i := 0; i < len(fields); i += 2 {
			name, err := command.String(fields[i])
			if err != nil {
				return AggregateReply{}, command.NewReplyError("rows of name/value pairs", v)
			}
			result[name] = fields[i+1].Native()
		}
		reply.Results = append(reply.Results, result)
	}
	return reply, nil
}
