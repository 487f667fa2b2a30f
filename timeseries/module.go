package timeseries

import (
	"context"

	"github.com/pior/redisstack/command"
)

// Commands runs the time-series commands on an executor, usually a
// *redisstack.Client (see Client.TS).
type Commands struct {
	exec command.Executor
}

// New binds the time-series commands to exec.
func New(exec command.Executor) *Commands {
	return &Commands{exec: exec}
}

func (c *Commands) Create(ctx context.Context, key string, opts *CreateOptions) error {
	_, err := command.Do(ctx, c.exec, Create(key, opts))
	return err
}

func (c *Commands) Alter(ctx context.Context, key string, opts *AlterOptions) error {
	_, err := command.Do(ctx, c.exec, Alter(key, opts))
	return err
}

func (c *Commands) Add(ctx context.Context, key string, ts Timestamp, value float64, opts *AddOptions) (int64, error) {
	return command.Do(ctx, c.exec, Add(key, ts, value, opts))
}

func (c *Commands) MAdd(ctx context.Context, samples ...MAddSample) ([]MAddResult, error) {
	return command.Do(ctx, c.exec, MAdd(samples...))
}

func (c *Commands) IncrBy(ctx context.Context, key string, value float64, opts *IncrDecrOptions) (int64, error) {
	return command.Do(ctx, c.exec, IncrBy(key, value, opts))
}

func (c *Commands) DecrBy(ctx context.Context, key string, value float64, opts *IncrDecrOptions) (int64, error) {
	return command.Do(ctx, c.exec, DecrBy(key, value, opts))
}

func (c *Commands) Del(ctx context.Context, key string, from, to Timestamp) (int64, error) {
	return command.Do(ctx, c.exec, Del(key, from, to))
}

func (c *Commands) CreateRule(ctx context.Context, sourceKey, destinationKey string, aggregation AggregationType, timeBucket int64) error {
	_, err := command.Do(ctx, c.exec, CreateRule(sourceKey, destinationKey, aggregation, timeBucket))
	return err
}

func (c *Commands) DeleteRule(ctx context.Context, sourceKey, destinationKey string) error {
	_, err := command.Do(ctx, c.exec, DeleteRule(sourceKey, destinationKey))
	return err
}

// Get returns the latest sample of key, or command.ErrNil if the series is empty.
func (c *Commands) Get(ctx context.Context, key string) (Sample, error) {
	return command.Do(ctx, c.exec, Get(key))
}

func (c *Commands) MGet(ctx context.Context, filters ...string) ([]LabeledSample, error) {
	return command.Do(ctx, c.exec, MGet(filters...))
}

func (c *Commands) MGetWithLabels(ctx context.Context, filters []string, selectedLabels ...string) ([]LabeledSample, error) {
	return command.Do(ctx, c.exec, MGetWithLabels(filters, selectedLabels...))
}

func (c *Commands) Range(ctx context.Context, key string, from, to Timestamp, opts *RangeOptions) ([]Sample, error) {
	return command.Do(ctx, c.exec, Range(key, from, to, opts))
}

func (c *Commands) RevRange(ctx context.Context, key string, from, to Timestamp, opts *RangeOptions) ([]Sample, error) {
	return command.Do(ctx, c.exec, RevRange(key, from, to, opts))
}

func (c *Commands) MRange(ctx context.Context, from, to Timestamp, filters []string, opts *MRangeOptions) ([]LabeledSeries, error) {
	return command.Do(ctx, c.exec, MRange(from, to, filters, opts))
}

func (c *Commands) MRevRange(ctx context.Context, from, to Timestamp, filters []string, opts *MRangeOptions) ([]LabeledSeries, error) {
	return command.Do(ctx, c.exec, MRevRange(from, to, filters, opts))
}

func (c *Commands) MRangeWithLabels(ctx context.Context, from, to Timestamp, filters []string, opts *MRangeWithLabelsOptions) ([]LabeledSeries, error) {
	return command.Do(ctx, c.exec, MRangeWithLabels(from, to, filters, opts))
}

func (c *Commands) MRevRangeWithLabels(ctx context.Context, from, to Timestamp, filters []string, opts *MRangeWithLabelsOptions) ([]LabeledSeries, error) {
	return command.Do(ctx, c.exec, MRevRangeWithLabels(from, to, filters, opts))
}

func (c *Commands) Info(ctx context.Context, key string) (Info, error) {
	return command.Do(ctx, c.exec, InfoOf(key))
}

func (c *Commands) QueryIndex(ctx context.Context, filters ...string) ([]string, error) {
	return command.Do(ctx, c.exec, QueryIndex(filters...))
}
