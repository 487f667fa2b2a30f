package timeseries

import (
	"github.com/pior/redisstack/command"
)

var (
	okDef     = command.Definition[string]{FirstKeyIndex: 1, Reply: command.OK}
	intDef    = command.Definition[int64]{FirstKeyIndex: 1, Reply: command.Int}
	maddDef   = command.Definition[[]MAddResult]{FirstKeyIndex: 1, Reply: transformMAddReply}
	getDef    = command.Definition[Sample]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformSampleReply}
	rangeDef  = command.Definition[[]Sample]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformRangeReply}
	infoDef   = command.Definition[Info]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformInfoReply}
	queryDef  = command.Definition[[]string]{ReadOnly: true, Reply: command.Strings}
	mgetDef   = command.Definition[[]LabeledSample]{ReadOnly: true, Reply: transformMGetReply}
	mgetWLDef = command.Definition[[]LabeledSample]{ReadOnly: true, Reply: transformMGetWithLabelsReply}
	mrangeDef = command.Definition[[]LabeledSeries]{ReadOnly: true, Reply: transformMRangeReply}
	mrangeWL  = command.Definition[[]LabeledSeries]{ReadOnly: true, Reply: transformMRangeWithLabelsReply}
)

// Create builds TS.CREATE.
func Create(key string, opts *CreateOptions) command.Cmd[string] {
	args := command.NewArgs("TS.CREATE", key)
	if opts != nil {
		args = pushRetentionArgument(args, opts.Retention)
		args = pushEncodingArgument(args, opts.Encoding)
		args = pushChunkSizeArgument(args, opts.ChunkSize)
		args = pushDuplicatePolicy(args, opts.DuplicatePolicy)
		args = pushLabelsArgument(args, opts.Labels)
	}
	return okDef.Build(args)
}

// Alter builds TS.ALTER.
func Alter(key string, opts *AlterOptions) command.Cmd[string] {
	args := command.NewArgs("TS.ALTER", key)
	if opts != nil {
		args = pushRetentionArgument(args, opts.Retention)
		args = pushChunkSizeArgument(args, opts.ChunkSize)
		args = pushDuplicatePolicy(args, opts.DuplicatePolicy)
		args = pushLabelsArgument(args, opts.Labels)
	}
	return okDef.Build(args)
}

// Add builds TS.ADD. The reply is the timestamp of the stored sample.
func Add(key string, ts Timestamp, value float64, opts *AddOptions) command.Cmd[int64] {
	args := command.NewArgs("TS.ADD", key, string(ts)).AppendFloat(value)
	if opts != nil {
		args = pushRetentionArgument(args, opts.Retention)
		args = pushEncodingArgument(args, opts.Encoding)
		args = pushChunkSizeArgument(args, opts.ChunkSize)
		args = command.PushStringOption(args, "ON_DUPLICATE", string(opts.OnDuplicate))
		args = pushLabelsArgument(args, opts.Labels)
	}
	return intDef.Build(args)
}

// MAdd builds TS.MADD.
func MAdd(samples ...MAddSample) command.Cmd[[]MAddResult] {
	args := make(command.Args, 0, 1+3*len(samples))
	args = append(args, "TS.MADD")
	for _, s := range samples {
		args = append(args, s.Key, string(s.Timestamp))
		args = args.AppendFloat(s.Value)
	}
	return maddDef.Build(args)
}

// IncrBy builds TS.INCRBY.
func IncrBy(key string, value float64, opts *IncrDecrOptions) command.Cmd[int64] {
	return intDef.Build(transformIncrDecrArguments("TS.INCRBY", key, value, opts))
}

// DecrBy builds TS.DECRBY.
func DecrBy(key string, value float64, opts *IncrDecrOptions) command.Cmd[int64] {
	return intDef.Build(transformIncrDecrArguments("TS.DECRBY", key, value, opts))
}

// Del builds TS.DEL. The reply is the number of deleted samples.
func Del(key string, from, to Timestamp) command.Cmd[int64] {
	return intDef.Build(command.NewArgs("TS.DEL", key, string(from), string(to)))
}

// CreateRule builds TS.CREATERULE.
func CreateRule(sourceKey, destinationKey string, aggregation AggregationType, timeBucket int64) command.Cmd[string] {
	args := command.NewArgs("TS.CREATERULE", sourceKey, destinationKey, "AGGREGATION", string(aggregation))
	return okDef.Build(args.AppendInt(timeBucket))
}

// DeleteRule builds TS.DELETERULE.
func DeleteRule(sourceKey, destinationKey string) command.Cmd[string] {
	return okDef.Build(command.NewArgs("TS.DELETERULE", sourceKey, destinationKey))
}

// Get builds TS.GET. Decoding fails with command.ErrNil when the series is empty.
func Get(key string) command.Cmd[Sample] {
	return getDef.Build(command.NewArgs("TS.GET", key))
}

// MGet builds TS.MGET.
func MGet(filters ...string) command.Cmd[[]LabeledSample] {
	return mgetDef.Build(pushFilterArgument(command.NewArgs("TS.MGET"), filters...))
}

// MGetWithLabels builds TS.MGET WITHLABELS, or SELECTED_LABELS when
// selectedLabels is not empty.
func MGetWithLabels(filters []string, selectedLabels ...string) command.Cmd[[]LabeledSample] {
	args := pushWithLabelsArgument(command.NewArgs("TS.MGET"), selectedLabels...)
	return mgetWLDef.Build(pushFilterArgument(args, filters...))
}

// Range builds TS.RANGE.
func Range(key string, from, to Timestamp, opts *RangeOptions) command.Cmd[[]Sample] {
	return rangeDef.Build(pushRangeArguments(command.NewArgs("TS.RANGE", key), from, to, opts))
}

// RevRange builds TS.REVRANGE.
func RevRange(key string, from, to Timestamp, opts *RangeOptions) command.Cmd[[]Sample] {
	return rangeDef.Build(pushRangeArguments(command.NewArgs("TS.REVRANGE", key), from, to, opts))
}

// MRange builds TS.MRANGE.
func MRange(from, to Timestamp, filters []string, opts *MRangeOptions) command.Cmd[[]LabeledSeries] {
	return mrangeDef.Build(pushMRangeArguments(command.NewArgs("TS.MRANGE"), from, to, filters, opts))
}

// MRevRange builds TS.MREVRANGE.
func MRevRange(from, to Timestamp, filters []string, opts *MRangeOptions) command.Cmd[[]LabeledSeries] {
	return mrangeDef.Build(pushMRangeArguments(command.NewArgs("TS.MREVRANGE"), from, to, filters, opts))
}

// MRangeWithLabels builds TS.MRANGE WITHLABELS.
func MRangeWithLabels(from, to Timestamp, filters []string, opts *MRangeWithLabelsOptions) command.Cmd[[]LabeledSeries] {
	return mrangeWL.Build(pushMRangeWithLabelsArguments(command.NewArgs("TS.MRANGE"), from, to, filters, opts))
}

// MRevRangeWithLabels builds TS.MREVRANGE WITHLABELS.
func MRevRangeWithLabels(from, to Timestamp, filters []string, opts *MRangeWithLabelsOptions) command.Cmd[[]LabeledSeries] {
	return mrangeWL.Build(pushMRangeWithLabelsArguments(command.NewArgs("TS.MREVRANGE"), from, to, filters, opts))
}

// InfoOf builds TS.INFO.
func InfoOf(key string) command.Cmd[Info] {
	return infoDef.Build(command.NewArgs("TS.INFO", key))
}

// QueryIndex builds TS.QUERYINDEX. The reply lists the matching keys.
func QueryIndex(filters ...string) command.Cmd[[]string] {
	return queryDef.Build(command.PushVariadic(command.NewArgs("TS.QUERYINDEX"), filters...))
}
