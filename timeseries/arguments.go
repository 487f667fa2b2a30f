package timeseries

import (
	"github.com/pior/redisstack/command"
)

func pushRetentionArgument(args command.Args, retention *int64) command.Args {
	return command.PushIntPtrOption(args, "RETENTION", retention)
}

func pushEncodingArgument(args command.Args, encoding Encoding) command.Args {
	return command.PushStringOption(args, "ENCODING", string(encoding))
}

func pushChunkSizeArgument(args command.Args, chunkSize *int64) command.Args {
	return command.PushIntPtrOption(args, "CHUNK_SIZE", chunkSize)
}

func pushDuplicatePolicy(args command.Args, policy DuplicatePolicy) command.Args {
	return command.PushStringOption(args, "DUPLICATE_POLICY", string(policy))
}

func pushLabelsArgument(args command.Args, labels Labels) command.Args {
	if len(labels) == 0 {
		return args
	}
	args = append(args, "LABELS")
	return command.PushPairs(args, labels)
}

func pushFilterArgument(args command.Args, filters ...string) command.Args {
	args = append(args, "FILTER")
	return command.PushVariadic(args, filters...)
}

func transformIncrDecrArguments(name, key string, value float64, opts *IncrDecrOptions) command.Args {
	args := command.NewArgs(name, key).AppendFloat(value)
	if opts == nil {
		return args
	}

	args = command.PushStringOption(args, "TIMESTAMP", string(opts.Timestamp))
	args = pushRetentionArgument(args, opts.Retention)
	args = command.PushFlag(args, "UNCOMPRESSED", opts.Uncompressed)
	args = pushChunkSizeArgument(args, opts.ChunkSize)
	return pushLabelsArgument(args, opts.Labels)
}

// pushRangeArguments appends the range bounds and the range clauses in the
// order the server grammar requires.
func pushRangeArguments(args command.Args, from, to Timestamp, opts *RangeOptions) command.Args {
	args = append(args, string(from), string(to))
	if opts == nil {
		return args
	}

	if len(opts.FilterByTS) > 0 {
		args = append(args, "FILTER_BY_TS")
		for _, ts := range opts.FilterByTS {
			args = append(args, string(ts))
		}
	}

	if opts.FilterByValue != nil {
		args = append(args, "FILTER_BY_VALUE")
		args = args.AppendFloat(opts.FilterByValue.Min).AppendFloat(opts.FilterByValue.Max)
	}

	args = command.PushIntOption(args, "COUNT", opts.Count)
	args = command.PushStringOption(args, "ALIGN", string(opts.Align))

	if opts.Aggregation != nil {
		args = append(args, "AGGREGATION", string(opts.Aggregation.Type))
		args = args.AppendInt(opts.Aggregation.TimeBucket)
	}

	return args
}

func pushMRangeGroupByArguments(args command.Args, groupBy *GroupBy) command.Args {
	if groupBy == nil {
		return args
	}
	return append(args, "GROUPBY", groupBy.Label, "REDUCE", string(groupBy.Reducer))
}

func pushWithLabelsArgument(args command.Args, selectedLabels ...string) command.Args {
	if len(selectedLabels) == 0 {
		return append(args, "WITHLABELS")
	}
	args = append(args, "SELECTED_LABELS")
	return command.PushVariadic(args, selectedLabels...)
}

// The filter must precede GROUPBY: the server groups the filtered series.
func pushMRangeArguments(args command.Args, from, to Timestamp, filters []string, opts *MRangeOptions) command.Args {
	var rangeOpts *RangeOptions
	var groupBy *GroupBy
	if opts != nil {
		rangeOpts = &opts.RangeOptions
		groupBy = opts.GroupBy
	}

	args = pushRangeArguments(args, from, to, rangeOpts)
	args = pushFilterArgument(args, filters...)
	return pushMRangeGroupByArguments(args, groupBy)
}

func pushMRangeWithLabelsArguments(args command.Args, from, to Timestamp, filters []string, opts *MRangeWithLabelsOptions) command.Args {
	var rangeOpts *RangeOptions
	var groupBy *GroupBy
	var selected []string
	if opts != nil {
		rangeOpts = &opts.RangeOptions
		groupBy = opts.GroupBy
		selected = opts.SelectedLabels
	}

	args = pushRangeArguments(args, from, to, rangeOpts)
	args = pushWithLabelsArgument(args, selected...)
	args = pushFilterArgument(args, filters...)
	return pushMRangeGroupByArguments(args, groupBy)
}
