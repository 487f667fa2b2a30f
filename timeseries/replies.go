package timeseries

import (
	"errors"
	"strings"

	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/resp"
)

// transformSampleReply decodes [timestamp, "value"].
func transformSampleReply(v resp.Value) (Sample, error) {
	elems, err := command.Array(v)
	if err != nil {
		return Sample{}, err
	}
	if len(elems) == 0 {
		// TS.GET on a series without samples
		return Sample{}, command.ErrNil
	}
	if len(elems) != 2 {
		return Sample{}, command.NewReplyError("[timestamp, value]", v)
	}

	ts, err := command.Int(elems[0])
	if err != nil {
		return Sample{}, command.NewReplyError("[timestamp, value]", v)
	}
	value, err := command.Float(elems[1])
	if err != nil {
		return Sample{}, command.NewReplyError("[timestamp, value]", v)
	}

	return Sample{Timestamp: ts, Value: value}, nil
}

// transformRangeReply decodes a sequence of samples, keeping the server order.
func transformRangeReply(v resp.Value) ([]Sample, error) {
	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, len(elems))
	for i, elem := range elems {
		if samples[i], err = transformSampleReply(elem); err != nil {
			if errors.Is(err, command.ErrNil) {
				return nil, command.NewReplyError("array of samples", v)
			}
			return nil, err
		}
	}
	return samples, nil
}

// transformLabelsReply decodes [[name, value], ...].
func transformLabelsReply(v resp.Value) (Labels, error) {
	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}

	labels := make(Labels, len(elems))
	for _, elem := range elems {
		pair, err := command.Array(elem)
		if err != nil || len(pair) != 2 {
			return nil, command.NewReplyError("[name, value] pairs", v)
		}
		name, err := command.String(pair[0])
		if err != nil {
			return nil, command.NewReplyError("[name, value] pairs", v)
		}
		value, err := command.String(pair[1])
		if err != nil && !errors.Is(err, command.ErrNil) {
			return nil, command.NewReplyError("[name, value] pairs", v)
		}
		labels[name] = value
	}
	return labels, nil
}

// decodeSeriesTriple splits [key, labels, payload].
func decodeSeriesTriple(v resp.Value) (string, resp.Value, resp.Value, error) {
	elems, err := command.Array(v)
	if err != nil || len(elems) != 3 {
		return "", resp.Value{}, resp.Value{}, command.NewReplyError("[key, labels, samples]", v)
	}
	key, err := command.String(elems[0])
	if err != nil {
		return "", resp.Value{}, resp.Value{}, command.NewReplyError("[key, labels, samples]", v)
	}
	return key, elems[1], elems[2], nil
}

func transformMRange(v resp.Value, withLabels bool) ([]LabeledSeries, error) {
	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}

	out := make([]LabeledSeries, len(elems))
	for i, elem := range elems {
		key, labels, samples, err := decodeSeriesTriple(elem)
		if err != nil {
			return nil, err
		}

		out[i].Key = key
		if withLabels {
			if out[i].Labels, err = transformLabelsReply(labels); err != nil {
				return nil, err
			}
		}
		if out[i].Samples, err = transformRangeReply(samples); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// transformMRangeReply decodes [[key, [], samples], ...]. Labels are left nil.
func transformMRangeReply(v resp.Value) ([]LabeledSeries, error) {
	return transformMRange(v, false)
}

// transformMRangeWithLabelsReply decodes [[key, labels, samples], ...].
func transformMRangeWithLabelsReply(v resp.Value) ([]LabeledSeries, error) {
	return transformMRange(v, true)
}

func transformMGet(v resp.Value, withLabels bool) ([]LabeledSample, error) {
	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}

	out := make([]LabeledSample, len(elems))
	for i, elem := range elems {
		key, labels, sample, err := decodeSeriesTriple(elem)
		if err != nil {
			return nil, err
		}

		out[i].Key = key
		if withLabels {
			if out[i].Labels, err = transformLabelsReply(labels); err != nil {
				return nil, err
			}
		}

		s, err := transformSampleReply(sample)
		switch {
		case errors.Is(err, command.ErrNil):
		case err != nil:
			return nil, err
		default:
			out[i].Sample = &s
		}
	}
	return out, nil
}

func transformMGetReply(v resp.Value) ([]LabeledSample, error) {
	return transformMGet(v, false)
}

func transformMGetWithLabelsReply(v resp.Value) ([]LabeledSample, error) {
	return transformMGet(v, true)
}

// transformMAddReply keeps per-sample error replies instead of failing.
func transformMAddReply(v resp.Value) ([]MAddResult, error) {
	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}

	out := make([]MAddResult, len(elems))
	for i, elem := range elems {
		if err := elem.Err(); err != nil {
			out[i].Err = err
			continue
		}
		if out[i].Timestamp, err = command.Int(elem); err != nil {
			return nil, command.NewReplyError("array of timestamps", v)
		}
	}
	return out, nil
}

// transformInfoReply decodes the flat name/value list of TS.INFO.
// Unknown fields are ignored.
func transformInfoReply(v resp.Value) (Info, error) {
	elems, err := command.Array(v)
	if err != nil {
		return Info{}, err
	}
	if len(elems)%2 != 0 {
		return Info{}, command.NewReplyError("name/value pairs", v)
	}

	var info Info
	for i := 0; i < len(elems); i += 2 {
		name, err := command.String(elems[i])
		if err != nil {
			return Info{}, command.NewReplyError("name/value pairs", v)
		}
		value := elems[i+1]

		switch strings.ToLower(name) {
		case "totalsamples":
			info.TotalSamples, err = command.Int(value)
		case "memoryusage":
			info.MemoryUsage, err = command.Int(value)
		case "firsttimestamp":
			info.FirstTimestamp, err = command.Int(value)
		case "lasttimestamp":
			info.LastTimestamp, err = command.Int(value)
		case "retentiontime":
			info.RetentionTime, err = command.Int(value)
		case "chunkcount":
			info.ChunkCount, err = command.Int(value)
		case "chunksize":
			info.ChunkSize, err = command.Int(value)
		case "chunktype":
			info.ChunkType, err = optionalString(value)
		case "duplicatepolicy":
			var policy string
			policy, err = optionalString(value)
			info.DuplicatePolicy = DuplicatePolicy(strings.ToUpper(policy))
		case "labels":
			info.Labels, err = transformLabelsReply(value)
		case "sourcekey":
			info.SourceKey, err = optionalString(value)
		case "rules":
			info.Rules, err = transformRulesReply(value)
		}
		if err != nil {
			return Info{}, err
		}
	}
	return info, nil
}

func optionalString(v resp.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	return command.String(v)
}

// transformRulesReply decodes [[destination, bucket, aggregation], ...].
func transformRulesReply(v resp.Value) ([]Rule, error) {
	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}

	rules := make([]Rule, len(elems))
	for i, elem := range elems {
		fields, err := command.Array(elem)
		if err != nil || len(fields) < 3 {
			return nil, command.NewReplyError("[key, bucket, aggregation] rules", v)
		}

		dst, err1 := command.String(fields[0])
		bucket, err2 := command.Int(fields[1])
		agg, err3 := command.String(fields[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, command.NewReplyError("[key, bucket, aggregation] rules", v)
		}

		rules[i] = Rule{
			DestinationKey: dst,
			TimeBucket:     bucket,
			Aggregation:    AggregationType(strings.ToLower(agg)),
		}
	}
	return rules, nil
}
