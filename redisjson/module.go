package redisjson

import (
	"context"
	"encoding/json"

	"github.com/pior/redisstack/command"
)

// Commands runs the JSON commands on an executor (see Client.JSON). Values
// passed as any are encoded with encoding/json.
type Commands struct {
	exec command.Executor
}

func New(exec command.Executor) *Commands {
	return &Commands{exec: exec}
}

// Set stores value at path. It returns false when condition prevented the write.
func (c *Commands) Set(ctx context.Context, key, path string, value any, condition SetCondition) (bool, error) {
	encoded, err := Marshal(value)
	if err != nil {
		return false, err
	}
	return command.Do(ctx, c.exec, Set(key, path, encoded, condition))
}

func (c *Commands) Get(ctx context.Context, key string, opts *GetOptions, paths ...string) (json.RawMessage, error) {
	return command.Do(ctx, c.exec, Get(key, opts, paths...))
}

// GetInto decodes the value at path into out.
func (c *Commands) GetInto(ctx context.Context, key, path string, out any) error {
	raw, err := c.Get(ctx, key, nil, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (c *Commands) MGet(ctx context.Context, keys []string, path string) ([]json.RawMessage, error) {
	return command.Do(ctx, c.exec, MGet(keys, path))
}

func (c *Commands) Del(ctx context.Context, key, path string) (int64, error) {
	return command.Do(ctx, c.exec, Del(key, path))
}

func (c *Commands) Forget(ctx context.Context, key, path string) (int64, error) {
	return command.Do(ctx, c.exec, Forget(key, path))
}

func (c *Commands) Type(ctx context.Context, key, path string) ([]string, error) {
	return command.Do(ctx, c.exec, Type(key, path))
}

func (c *Commands) NumIncrBy(ctx context.Context, key, path string, by float64) (json.RawMessage, error) {
	return command.Do(ctx, c.exec, NumIncrBy(key, path, by))
}

func (c *Commands) NumMultBy(ctx context.Context, key, path string, by float64) (json.RawMessage, error) {
	return command.Do(ctx, c.exec, NumMultBy(key, path, by))
}

func (c *Commands) StrAppend(ctx context.Context, key, path, value string) ([]*int64, error) {
	encoded, err := Marshal(value)
	if err != nil {
		return nil, err
	}
	return command.Do(ctx, c.exec, StrAppend(key, path, encoded))
}

func (c *Commands) StrLen(ctx context.Context, key, path string) ([]*int64, error) {
	return command.Do(ctx, c.exec, StrLen(key, path))
}

func (c *Commands) ArrAppend(ctx context.Context, key, path string, values ...any) ([]*int64, error) {
	encoded, err := marshalAll(values)
	if err != nil {
		return nil, err
	}
	return command.Do(ctx, c.exec, ArrAppend(key, path, encoded...))
}

func (c *Commands) ArrIndex(ctx context.Context, key, path string, value any, opts *ArrIndexOptions) ([]*int64, error) {
	encoded, err := Marshal(value)
	if err != nil {
		return nil, err
	}
	return command.Do(ctx, c.exec, ArrIndex(key, path, encoded, opts))
}

func (c *Commands) ArrInsert(ctx context.Context, key, path string, index int64, values ...any) ([]*int64, error) {
	encoded, err := marshalAll(values)
	if err != nil {
		return nil, err
	}
	return command.Do(ctx, c.exec, ArrInsert(key, path, index, encoded...))
}

func (c *Commands) ArrLen(ctx context.Context, key, path string) ([]*int64, error) {
	return command.Do(ctx, c.exec, ArrLen(key, path))
}

func (c *Commands) ArrPop(ctx context.Context, key, path string, index *int64) ([]json.RawMessage, error) {
	return command.Do(ctx, c.exec, ArrPop(key, path, index))
}

func (c *Commands) ArrTrim(ctx context.Context, key, path string, start, stop int64) ([]*int64, error) {
	return command.Do(ctx, c.exec, ArrTrim(key, path, start, stop))
}

func (c *Commands) ObjKeys(ctx context.Context, key, path string) ([][]string, error) {
	return command.Do(ctx, c.exec, ObjKeys(key, path))
}

func (c *Commands) ObjLen(ctx context.Context, key, path string) ([]*int64, error) {
	return command.Do(ctx, c.exec, ObjLen(key, path))
}

func (c *Commands) Toggle(ctx context.Context, key, path string) ([]*int64, error) {
	return command.Do(ctx, c.exec, Toggle(key, path))
}

func (c *Commands) Clear(ctx context.Context, key, path string) (int64, error) {
	return command.Do(ctx, c.exec, Clear(key, path))
}

func marshalAll(values []any) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		var err error
		if out[i], err = Marshal(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}
