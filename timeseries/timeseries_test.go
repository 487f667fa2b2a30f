package timeseries

import (
	"context"
	"testing"
	"time"

	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp(t *testing.T) {
	assert.Equal(t, Timestamp("0"), Millis(0))
	assert.Equal(t, Timestamp("0"), Time(time.Unix(0, 0)))
	assert.Equal(t, Timestamp("1500"), Time(time.UnixMilli(1500)))
	assert.Equal(t, Timestamp("*"), Now)
}

func TestOptionalArguments(t *testing.T) {
	empty := command.Args{}

	assert.Equal(t, empty, pushRetentionArgument(command.Args{}, nil))
	assert.Equal(t, empty, pushEncodingArgument(command.Args{}, ""))
	assert.Equal(t, empty, pushChunkSizeArgument(command.Args{}, nil))
	assert.Equal(t, empty, pushDuplicatePolicy(command.Args{}, ""))
	assert.Equal(t, empty, pushLabelsArgument(command.Args{}, nil))
	assert.Equal(t, empty, pushMRangeGroupByArguments(command.Args{}, nil))

	assert.Equal(t, command.Args{"RETENTION", "1"}, pushRetentionArgument(command.Args{}, Int64(1)))
	assert.Equal(t, command.Args{"RETENTION", "0"}, pushRetentionArgument(command.Args{}, Int64(0)))
	assert.Equal(t, command.Args{"ENCODING", "UNCOMPRESSED"}, pushEncodingArgument(command.Args{}, EncodingUncompressed))
	assert.Equal(t, command.Args{"CHUNK_SIZE", "1"}, pushChunkSizeArgument(command.Args{}, Int64(1)))
	assert.Equal(t, command.Args{"LABELS", "label", "value"}, pushLabelsArgument(command.Args{}, Labels{"label": "value"}))
}

func TestTransformIncrDecrArguments(t *testing.T) {
	tests := []struct {
		name     string
		opts     *IncrDecrOptions
		expected command.Args
	}{
		{"without options", nil, command.Args{"TS.INCRBY", "key", "1"}},
		{"with TIMESTAMP", &IncrDecrOptions{Timestamp: Now}, command.Args{"TS.INCRBY", "key", "1", "TIMESTAMP", "*"}},
		{"with UNCOMPRESSED", &IncrDecrOptions{Uncompressed: true}, command.Args{"TS.INCRBY", "key", "1", "UNCOMPRESSED"}},
		{"with UNCOMPRESSED false", &IncrDecrOptions{Uncompressed: false}, command.Args{"TS.INCRBY", "key", "1"}},
		{
			"all options",
			&IncrDecrOptions{Timestamp: Millis(5), Retention: Int64(10), Uncompressed: true, ChunkSize: Int64(128), Labels: Labels{"a": "b"}},
			command.Args{"TS.INCRBY", "key", "1", "TIMESTAMP", "5", "RETENTION", "10", "UNCOMPRESSED", "CHUNK_SIZE", "128", "LABELS", "a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, transformIncrDecrArguments("TS.INCRBY", "key", 1, tt.opts))
		})
	}
}

func TestPushRangeArguments(t *testing.T) {
	tests := []struct {
		name     string
		opts     *RangeOptions
		expected command.Args
	}{
		{"without options", nil, command.Args{"-", "+"}},
		{"FILTER_BY_TS single", &RangeOptions{FilterByTS: []Timestamp{"ts"}}, command.Args{"-", "+", "FILTER_BY_TS", "ts"}},
		{"FILTER_BY_TS many", &RangeOptions{FilterByTS: []Timestamp{"1", "2"}}, command.Args{"-", "+", "FILTER_BY_TS", "1", "2"}},
		{"FILTER_BY_VALUE", &RangeOptions{FilterByValue: &ValueFilter{Min: 1, Max: 2}}, command.Args{"-", "+", "FILTER_BY_VALUE", "1", "2"}},
		{"COUNT", &RangeOptions{Count: 1}, command.Args{"-", "+", "COUNT", "1"}},
		{"ALIGN", &RangeOptions{Align: Millis(1)}, command.Args{"-", "+", "ALIGN", "1"}},
		{
			"AGGREGATION",
			&RangeOptions{Aggregation: &Aggregation{Type: AggregationFirst, TimeBucket: 1}},
			command.Args{"-", "+", "AGGREGATION", "first", "1"},
		},
		{
			"FILTER_BY_TS and COUNT",
			&RangeOptions{Count: 1, FilterByTS: []Timestamp{"ts"}},
			command.Args{"-", "+", "FILTER_BY_TS", "ts", "COUNT", "1"},
		},
		{
			"every clause in fixed order",
			&RangeOptions{
				Aggregation:   &Aggregation{Type: AggregationFirst, TimeBucket: 1},
				Align:         Millis(1),
				Count:         1,
				FilterByValue: &ValueFilter{Min: 1, Max: 2},
				FilterByTS:    []Timestamp{"ts"},
			},
			command.Args{"-", "+", "FILTER_BY_TS", "ts", "FILTER_BY_VALUE", "1", "2", "COUNT", "1", "ALIGN", "1", "AGGREGATION", "first", "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pushRangeArguments(command.Args{}, Start, End, tt.opts))
		})
	}
}

func TestPushMRangeArguments(t *testing.T) {
	assert.Equal(t,
		command.Args{"GROUPBY", "label", "REDUCE", "max"},
		pushMRangeGroupByArguments(command.Args{}, &GroupBy{Label: "label", Reducer: ReducerMaximum}))

	assert.Equal(t, command.Args{"FILTER", "label=value"}, pushFilterArgument(command.Args{}, "label=value"))
	assert.Equal(t, command.Args{"FILTER", "1=1", "2=2"}, pushFilterArgument(command.Args{}, "1=1", "2=2"))

	assert.Equal(t,
		command.Args{"-", "+", "FILTER", "label=value"},
		pushMRangeArguments(command.Args{}, Start, End, []string{"label=value"}, nil))

	assert.Equal(t,
		command.Args{"-", "+", "FILTER", "label=value", "GROUPBY", "label", "REDUCE", "max"},
		pushMRangeArguments(command.Args{}, Start, End, []string{"label=value"}, &MRangeOptions{
			GroupBy: &GroupBy{Label: "label", Reducer: ReducerMaximum},
		}))

	assert.Equal(t, command.Args{"WITHLABELS"}, pushWithLabelsArgument(command.Args{}))
	assert.Equal(t, command.Args{"SELECTED_LABELS", "label"}, pushWithLabelsArgument(command.Args{}, "label"))

	assert.Equal(t,
		command.Args{"-", "+", "WITHLABELS", "FILTER", "label=value"},
		pushMRangeWithLabelsArguments(command.Args{}, Start, End, []string{"label=value"}, nil))

	assert.Equal(t,
		command.Args{"-", "+", "COUNT", "2", "SELECTED_LABELS", "a", "b", "FILTER", "x=y", "GROUPBY", "a", "REDUCE", "sum"},
		pushMRangeWithLabelsArguments(command.Args{}, Start, End, []string{"x=y"}, &MRangeWithLabelsOptions{
			MRangeOptions: MRangeOptions{
				RangeOptions: RangeOptions{Count: 2},
				GroupBy:      &GroupBy{Label: "a", Reducer: ReducerSum},
			},
			SelectedLabels: []string{"a", "b"},
		}))
}

func sample(ts int64, value string) resp.Value {
	return resp.ArrayOf(resp.Integer(ts), resp.BulkString(value))
}

func TestTransformSampleReply(t *testing.T) {
	s, err := transformSampleReply(sample(1, "1.1"))
	require.NoError(t, err)
	assert.Equal(t, Sample{Timestamp: 1, Value: 1.1}, s)

	_, err = transformSampleReply(resp.ArrayOf())
	assert.ErrorIs(t, err, command.ErrNil)

	_, err = transformSampleReply(resp.ArrayOf(resp.Integer(1)))
	assert.ErrorIs(t, err, command.ErrUnexpectedReply)

	_, err = transformSampleReply(resp.ArrayOf(resp.Integer(1), resp.BulkString("nope")))
	assert.ErrorIs(t, err, command.ErrUnexpectedReply)
}

func TestTransformRangeReply(t *testing.T) {
	samples, err := transformRangeReply(resp.ArrayOf(sample(1, "1.1"), sample(2, "2.2")))
	require.NoError(t, err)
	assert.Equal(t, []Sample{{1, 1.1}, {2, 2.2}}, samples)

	// order is kept as received
	samples, err = transformRangeReply(resp.ArrayOf(sample(2, "2.2"), sample(1, "1.1")))
	require.NoError(t, err)
	assert.Equal(t, []Sample{{2, 2.2}, {1, 1.1}}, samples)

	samples, err = transformRangeReply(resp.ArrayOf())
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestTransformMRangeReply(t *testing.T) {
	reply := resp.ArrayOf(resp.ArrayOf(
		resp.BulkString("key"),
		resp.ArrayOf(),
		resp.ArrayOf(sample(1, "1.1"), sample(2, "2.2")),
	))

	series, err := transformMRangeReply(reply)
	require.NoError(t, err)
	assert.Equal(t, []LabeledSeries{{
		Key:     "key",
		Samples: []Sample{{1, 1.1}, {2, 2.2}},
	}}, series)
	assert.Nil(t, series[0].Labels)
}

func TestTransformMRangeWithLabelsReply(t *testing.T) {
	reply := resp.ArrayOf(resp.ArrayOf(
		resp.BulkString("key"),
		resp.ArrayOf(resp.ArrayOf(resp.BulkString("label"), resp.BulkString("value"))),
		resp.ArrayOf(sample(1, "1.1"), sample(2, "2.2")),
	))

	series, err := transformMRangeWithLabelsReply(reply)
	require.NoError(t, err)
	assert.Equal(t, []LabeledSeries{{
		Key:     "key",
		Labels:  Labels{"label": "value"},
		Samples: []Sample{{1, 1.1}, {2, 2.2}},
	}}, series)
}

func TestTransformMRangeReplyShapeErrors(t *testing.T) {
	_, err := transformMRangeReply(resp.ArrayOf(resp.ArrayOf(resp.BulkString("key"))))
	assert.ErrorIs(t, err, command.ErrUnexpectedReply)

	_, err = transformMRangeReply(resp.Integer(1))
	assert.ErrorIs(t, err, command.ErrUnexpectedReply)
}

func TestTransformMGetReply(t *testing.T) {
	reply := resp.ArrayOf(
		resp.ArrayOf(
			resp.BulkString("a"),
			resp.ArrayOf(resp.ArrayOf(resp.BulkString("room"), resp.BulkString("kitchen"))),
			sample(5, "21.5"),
		),
		resp.ArrayOf(resp.BulkString("b"), resp.ArrayOf(), resp.ArrayOf()),
	)

	got, err := transformMGetWithLabelsReply(reply)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, LabeledSample{Key: "a", Labels: Labels{"room": "kitchen"}, Sample: &Sample{5, 21.5}}, got[0])
	assert.Equal(t, "b", got[1].Key)
	assert.Nil(t, got[1].Sample)

	got, err = transformMGetReply(reply)
	require.NoError(t, err)
	assert.Nil(t, got[0].Labels)
}

func TestTransformMAddReply(t *testing.T) {
	got, err := transformMAddReply(resp.ArrayOf(
		resp.Integer(1),
		resp.ErrorReply("ERR TSDB: the key does not exist"),
	))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Timestamp)
	assert.NoError(t, got[0].Err)
	assert.True(t, resp.IsServerError(got[1].Err, "ERR"))
}

func TestTransformInfoReply(t *testing.T) {
	reply := resp.ArrayOf(
		resp.SimpleString("totalSamples"), resp.Integer(2),
		resp.SimpleString("memoryUsage"), resp.Integer(4184),
		resp.SimpleString("firstTimestamp"), resp.Integer(1),
		resp.SimpleString("lastTimestamp"), resp.Integer(2),
		resp.SimpleString("retentionTime"), resp.Integer(0),
		resp.SimpleString("chunkCount"), resp.Integer(1),
		resp.SimpleString("chunkSize"), resp.Integer(4096),
		resp.SimpleString("chunkType"), resp.SimpleString("compressed"),
		resp.SimpleString("duplicatePolicy"), resp.NullBulk(),
		resp.SimpleString("labels"), resp.ArrayOf(resp.ArrayOf(resp.BulkString("a"), resp.BulkString("b"))),
		resp.SimpleString("sourceKey"), resp.NullBulk(),
		resp.SimpleString("rules"), resp.ArrayOf(resp.ArrayOf(resp.BulkString("dst"), resp.Integer(60000), resp.SimpleString("AVG"))),
		resp.SimpleString("keySelfName"), resp.BulkString("key"),
	)

	info, err := transformInfoReply(reply)
	require.NoError(t, err)
	assert.Equal(t, Info{
		TotalSamples:   2,
		MemoryUsage:    4184,
		FirstTimestamp: 1,
		LastTimestamp:  2,
		ChunkCount:     1,
		ChunkSize:      4096,
		ChunkType:      "compressed",
		Labels:         Labels{"a": "b"},
		Rules:          []Rule{{DestinationKey: "dst", TimeBucket: 60000, Aggregation: AggregationAvg}},
	}, info)
}

func TestCommandTokens(t *testing.T) {
	tests := []struct {
		name     string
		cmd      command.Completed
		expected []string
		readOnly bool
	}{
		{"CREATE", Create("key", nil), []string{"TS.CREATE", "key"}, false},
		{
			"CREATE with options",
			Create("key", &CreateOptions{Retention: Int64(1), Encoding: EncodingCompressed, ChunkSize: Int64(2), DuplicatePolicy: DuplicatePolicyLast, Labels: Labels{"l": "v"}}),
			[]string{"TS.CREATE", "key", "RETENTION", "1", "ENCODING", "COMPRESSED", "CHUNK_SIZE", "2", "DUPLICATE_POLICY", "LAST", "LABELS", "l", "v"},
			false,
		},
		{"ALTER", Alter("key", &AlterOptions{Retention: Int64(1)}), []string{"TS.ALTER", "key", "RETENTION", "1"}, false},
		{"ALTER RETENTION 0", Alter("key", &AlterOptions{Retention: Int64(0)}), []string{"TS.ALTER", "key", "RETENTION", "0"}, false},
		{"ADD", Add("key", Millis(1), 1.5, nil), []string{"TS.ADD", "key", "1", "1.5"}, false},
		{"ADD ON_DUPLICATE", Add("key", Now, 1, &AddOptions{OnDuplicate: DuplicatePolicySum}), []string{"TS.ADD", "key", "*", "1", "ON_DUPLICATE", "SUM"}, false},
		{
			"MADD",
			MAdd(MAddSample{"a", Millis(1), 1}, MAddSample{"b", Millis(2), 2.5}),
			[]string{"TS.MADD", "a", "1", "1", "b", "2", "2.5"},
			false,
		},
		{"DECRBY", DecrBy("key", 2, nil), []string{"TS.DECRBY", "key", "2"}, false},
		{"DEL", Del("key", Millis(1), Millis(2)), []string{"TS.DEL", "key", "1", "2"}, false},
		{"CREATERULE", CreateRule("src", "dst", AggregationAvg, 1), []string{"TS.CREATERULE", "src", "dst", "AGGREGATION", "avg", "1"}, false},
		{"DELETERULE", DeleteRule("src", "dst"), []string{"TS.DELETERULE", "src", "dst"}, false},
		{"GET", Get("key"), []string{"TS.GET", "key"}, true},
		{"MGET", MGet("label=value"), []string{"TS.MGET", "FILTER", "label=value"}, true},
		{"MGET WITHLABELS", MGetWithLabels([]string{"label=value"}), []string{"TS.MGET", "WITHLABELS", "FILTER", "label=value"}, true},
		{"RANGE", Range("key", Start, End, nil), []string{"TS.RANGE", "key", "-", "+"}, true},
		{"REVRANGE", RevRange("key", Start, End, &RangeOptions{Count: 1}), []string{"TS.REVRANGE", "key", "-", "+", "COUNT", "1"}, true},
		{"MRANGE", MRange(Start, End, []string{"label=value"}, nil), []string{"TS.MRANGE", "-", "+", "FILTER", "label=value"}, true},
		{"MREVRANGE", MRevRange(Start, End, []string{"label=value"}, nil), []string{"TS.MREVRANGE", "-", "+", "FILTER", "label=value"}, true},
		{"MRANGE WITHLABELS", MRangeWithLabels(Start, End, []string{"label=value"}, nil), []string{"TS.MRANGE", "-", "+", "WITHLABELS", "FILTER", "label=value"}, true},
		{"MREVRANGE WITHLABELS", MRevRangeWithLabels(Start, End, []string{"label=value"}, nil), []string{"TS.MREVRANGE", "-", "+", "WITHLABELS", "FILTER", "label=value"}, true},
		{"INFO", InfoOf("key"), []string{"TS.INFO", "key"}, true},
		{"QUERYINDEX", QueryIndex("a=b", "c=d"), []string{"TS.QUERYINDEX", "a=b", "c=d"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cmd.Args())
			assert.Equal(t, tt.readOnly, tt.cmd.IsReadOnly())
		})
	}
}

func TestCommandKeys(t *testing.T) {
	key, ok := Add("key", Now, 1, nil).Key()
	assert.True(t, ok)
	assert.Equal(t, "key", key)

	key, ok = MAdd(MAddSample{"first", Now, 1}).Key()
	assert.True(t, ok)
	assert.Equal(t, "first", key)

	_, ok = MRange(Start, End, []string{"a=b"}, nil).Key()
	assert.False(t, ok)
}

type fakeExecutor struct {
	sent  [][]string
	reply resp.Value
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd command.Completed) (resp.Value, error) {
	f.sent = append(f.sent, cmd.Args())
	return f.reply, nil
}

func TestCommands(t *testing.T) {
	exec := &fakeExecutor{reply: resp.ArrayOf(sample(1, "1.1"), sample(2, "2.2"))}
	ts := New(exec)

	samples, err := ts.Range(t.Context(), "key", Start, End, &RangeOptions{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, []Sample{{1, 1.1}, {2, 2.2}}, samples)
	assert.Equal(t, [][]string{{"TS.RANGE", "key", "-", "+", "COUNT", "2"}}, exec.sent)

	exec.reply = resp.ArrayOf()
	_, err = ts.Get(t.Context(), "key")
	assert.ErrorIs(t, err, command.ErrNil)

	exec.reply = resp.SimpleString("OK")
	require.NoError(t, ts.Create(t.Context(), "key", nil))

	exec.reply = resp.ErrorReply("ERR TSDB: key already exists")
	err = ts.Create(t.Context(), "key", nil)
	assert.True(t, resp.IsServerError(err, "ERR"))
}
