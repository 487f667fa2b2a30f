package timeseries

import (
	"strconv"
	"time"
)

// Timestamp is a timestamp token: milliseconds since the epoch, or one of
// the server sentinels.
type Timestamp string

const (
	// Now asks the server to use its own clock.
	Now Timestamp = "*"
	// Start is the earliest timestamp of a series (range queries only).
	Start Timestamp = "-"
	// End is the latest timestamp of a series (range queries only).
	End Timestamp = "+"
)

// Millis returns the timestamp token for ms milliseconds since the epoch.
func Millis(ms int64) Timestamp {
	return Timestamp(strconv.FormatInt(ms, 10))
}

// Time returns the timestamp token for t, truncated to the millisecond.
func Time(t time.Time) Timestamp {
	return Millis(t.UnixMilli())
}

// Encoding is the chunk encoding of a series.
type Encoding string

const (
	EncodingCompressed   Encoding = "COMPRESSED"
	EncodingUncompressed Encoding = "UNCOMPRESSED"
)

// DuplicatePolicy decides what happens when a sample is added at an existing timestamp.
type DuplicatePolicy string

const (
	DuplicatePolicyBlock DuplicatePolicy = "BLOCK"
	DuplicatePolicyFirst DuplicatePolicy = "FIRST"
	DuplicatePolicyLast  DuplicatePolicy = "LAST"
	DuplicatePolicyMin   DuplicatePolicy = "MIN"
	DuplicatePolicyMax   DuplicatePolicy = "MAX"
	DuplicatePolicySum   DuplicatePolicy = "SUM"
)

// AggregationType is the function applied to each time bucket.
type AggregationType string

const (
	AggregationAvg   AggregationType = "avg"
	AggregationFirst AggregationType = "first"
	AggregationLast  AggregationType = "last"
	AggregationMin   AggregationType = "min"
	AggregationMax   AggregationType = "max"
	AggregationSum   AggregationType = "sum"
	AggregationRange AggregationType = "range"
	AggregationCount AggregationType = "count"
	AggregationStdP  AggregationType = "std.p"
	AggregationStdS  AggregationType = "std.s"
	AggregationVarP  AggregationType = "var.p"
	AggregationVarS  AggregationType = "var.s"
	AggregationTWA   AggregationType = "twa"
)

// Reducer combines the series of one GROUPBY group.
type Reducer string

const (
	ReducerAvg     Reducer = "avg"
	ReducerSum     Reducer = "sum"
	ReducerMinimum Reducer = "min"
	ReducerMaximum Reducer = "max"
	ReducerRange   Reducer = "range"
	ReducerCount   Reducer = "count"
	ReducerStdP    Reducer = "std.p"
	ReducerStdS    Reducer = "std.s"
	ReducerVarP    Reducer = "var.p"
	ReducerVarS    Reducer = "var.s"
)

// Labels are the name/value pairs attached to a series.
type Labels map[string]string

// Sample is one data point.
type Sample struct {
	Timestamp int64
	Value     float64
}

// LabeledSeries is one series of a multi-series range reply.
// Labels is nil unless the query asked for labels.
type LabeledSeries struct {
	Key     string
	Labels  Labels
	Samples []Sample
}

// LabeledSample is one series of a TS.MGET reply. Sample is nil when the
// series has no data yet.
type LabeledSample struct {
	Key    string
	Labels Labels
	Sample *Sample
}

// Rule is a compaction rule of a source series.
type Rule struct {
	DestinationKey string
	TimeBucket     int64
	Aggregation    AggregationType
}

// Info is the TS.INFO reply.
type Info struct {
	TotalSamples    int64
	MemoryUsage     int64
	FirstTimestamp  int64
	LastTimestamp   int64
	RetentionTime   int64
	ChunkCount      int64
	ChunkSize       *int64
	ChunkType       string
	DuplicatePolicy DuplicatePolicy
	Labels          Labels
	SourceKey       string
	Rules           []Rule
}

// MAddResult is the outcome of one sample of TS.MADD. The server reports
// per-sample failures without failing the whole command.
type MAddResult struct {
	Timestamp int64
	Err       error
}

// MAddSample is one sample of TS.MADD.
type MAddSample struct {
	Key       string
	Timestamp Timestamp
	Value     float64
}

// Int64 returns a pointer to n, for the optional integer options. A nil
// option is omitted; Int64(0) is sent, e.g. RETENTION 0 for no expiry.
func Int64(n int64) *int64 {
	return &n
}

// CreateOptions are the options of TS.CREATE. Zero and nil fields are
// omitted.
type CreateOptions struct {
	Retention       *int64
	Encoding        Encoding
	ChunkSize       *int64
	DuplicatePolicy DuplicatePolicy
	Labels          Labels
}

// AlterOptions are the options of TS.ALTER.
type AlterOptions struct {
	Retention       *int64
	ChunkSize       *int64
	DuplicatePolicy DuplicatePolicy
	Labels          Labels
}

// AddOptions are the options of TS.ADD. OnDuplicate overrides the series
// duplicate policy for this sample only.
type AddOptions struct {
	Retention   *int64
	Encoding    Encoding
	ChunkSize   *int64
	OnDuplicate DuplicatePolicy
	Labels      Labels
}

// IncrDecrOptions are the options of TS.INCRBY and TS.DECRBY.
type IncrDecrOptions struct {
	Timestamp    Timestamp
	Retention    *int64
	Uncompressed bool
	ChunkSize    *int64
	Labels       Labels
}

// ValueFilter restricts a range to samples with Min <= value <= Max.
type ValueFilter struct {
	Min float64
	Max float64
}

// Aggregation buckets samples by TimeBucket milliseconds.
type Aggregation struct {
	Type       AggregationType
	TimeBucket int64
}

// RangeOptions are the options shared by every range query.
type RangeOptions struct {
	FilterByTS    []Timestamp
	FilterByValue *ValueFilter
	Count         int64
	Align         Timestamp
	Aggregation   *Aggregation
}

// GroupBy groups the series of a multi-range reply by label.
type GroupBy struct {
	Label   string
	Reducer Reducer
}

// MRangeOptions are the options of TS.MRANGE and TS.MREVRANGE.
type MRangeOptions struct {
	RangeOptions
	GroupBy *GroupBy
}

// MRangeWithLabelsOptions are the options of the WITHLABELS variants.
// SelectedLabels replaces WITHLABELS by SELECTED_LABELS.
type MRangeWithLabelsOptions struct {
	MRangeOptions
	SelectedLabels []string
}
