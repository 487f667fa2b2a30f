package search

import (
	"context"

	"github.com/pior/redisstack/command"
)

// Commands runs the search commands on an executor (see Client.FT).
type Commands struct {
	exec command.Executor
}

func New(exec command.Executor) *Commands {
	return &Commands{exec: exec}
}

func (c *Commands) Create(ctx context.Context, index string, schema Schema, opts *CreateOptions) error {
	_, err := command.Do(ctx, c.exec, Create(index, schema, opts))
	return err
}

func (c *Commands) DropIndex(ctx context.Context, index string, deleteDocuments bool) error {
	_, err := command.Do(ctx, c.exec, DropIndex(index, deleteDocuments))
	return err
}

func (c *Commands) Search(ctx context.Context, index, query string, opts *SearchOptions) (SearchReply, error) {
	return command.Do(ctx, c.exec, Search(index, query, opts))
}

func (c *Commands) Aggregate(ctx context.Context, index, query string, opts *AggregateOptions) (AggregateReply, error) {
	return command.Do(ctx, c.exec, Aggregate(index, query, opts))
}

func (c *Commands) Info(ctx context.Context, index string) (map[string]any, error) {
	return command.Do(ctx, c.exec, Info(index))
}

func (c *Commands) Explain(ctx context.Context, index, query string, dialect int64) (string, error) {
	return command.Do(ctx, c.exec, Explain(index, query, dialect))
}

func (c *Commands) List(ctx context.Context) ([]string, error) {
	return command.Do(ctx, c.exec, List())
}

func (c *Commands) DictAdd(ctx context.Context, dictionary string, terms ...string) (int64, error) {
	return command.Do(ctx, c.exec, DictAdd(dictionary, terms...))
}

func (c *Commands) DictDel(ctx context.Context, dictionary string, terms ...string) (int64, error) {
	return command.Do(ctx, c.exec, DictDel(dictionary, terms...))
}

func (c *Commands) DictDump(ctx context.Context, dictionary string) ([]string, error) {
	return command.Do(ctx, c.exec, DictDump(dictionary))
}

func (c *Commands) SynUpdate(ctx context.Context, index, groupID string, terms []string, opts *SynUpdateOptions) error {
	_, err := command.Do(ctx, c.exec, SynUpdate(index, groupID, terms, opts))
	return err
}

func (c *Commands) SynDump(ctx context.Context, index string) (map[string][]string, error) {
	return command.Do(ctx, c.exec, SynDump(index))
}

func (c *Commands) TagVals(ctx context.Context, index, field string) ([]string, error) {
	return command.Do(ctx, c.exec, TagVals(index, field))
}

func (c *Commands) AliasAdd(ctx context.Context, alias, index string) error {
	_, err := command.Do(ctx, c.exec, AliasAdd(alias, index))
	return err
}

func (c *Commands) AliasDel(ctx context.Context, alias string) error {
	_, err := command.Do(ctx, c.exec, AliasDel(alias))
	return err
}

func (c *Commands) AliasUpdate(ctx context.Context, alias, index string) error {
	_, err := command.Do(ctx, c.exec, AliasUpdate(alias, index))
	return err
}

func (c *Commands) ConfigGet(ctx context.Context, option string) (map[string]string, error) {
	return command.Do(ctx, c.exec, ConfigGet(option))
}

func (c *Commands) ConfigSet(ctx context.Context, option, value string) error {
	_, err := command.Do(ctx, c.exec, ConfigSet(option, value))
	return err
}

func (c *Commands) SugAdd(ctx context.Context, key, suggestion string, score float64, opts *SugAddOptions) (int64, error) {
	return command.Do(ctx, c.exec, SugAdd(key, suggestion, score, opts))
}

func (c *Commands) SugGet(ctx context.Context, key, prefix string, opts *SugGetOptions) ([]string, error) {
	return command.Do(ctx, c.exec, SugGet(key, prefix, opts))
}

func (c *Commands) SugGetWithScores(ctx context.Context, key, prefix string, opts *SugGetOptions) ([]Suggestion, error) {
	return command.Do(ctx, c.exec, SugGetWithScores(key, prefix, opts))
}

func (c *Commands) SugDel(ctx context.Context, key, suggestion string) (bool, error) {
	return command.Do(ctx, c.exec, SugDel(key, suggestion))
}

func (c *Commands) SugLen(ctx context.Context, key string) (int64, error) {
	return command.Do(ctx, c.exec, SugLen(key))
}
