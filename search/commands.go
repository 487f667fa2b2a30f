package search

import (
	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/resp"
)

// The index name is routed like a key so that every command of an index
// reaches the same server.
var (
	okDef        = command.Definition[string]{FirstKeyIndex: 1, Reply: command.OK}
	keylessOKDef = command.Definition[string]{Reply: command.OK}
	intDef       = command.Definition[int64]{FirstKeyIndex: 1, Reply: command.Int}
	boolDef      = command.Definition[bool]{FirstKeyIndex: 1, Reply: command.Bool}
	stringsDef   = command.Definition[[]string]{ReadOnly: true, FirstKeyIndex: 1, Reply: command.Strings}
	listDef      = command.Definition[[]string]{ReadOnly: true, Reply: command.Strings}
	explainDef   = command.Definition[string]{ReadOnly: true, FirstKeyIndex: 1, Reply: command.String}
	synDumpDef   = command.Definition[map[string][]string]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformSynDumpReply}
	infoDef      = command.Definition[map[string]any]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformInfoReply}
	aggregateDef = command.Definition[AggregateReply]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformAggregateReply}
	configGetDef = command.Definition[map[string]string]{ReadOnly: true, Reply: transformConfigGetReply}
	sugGetDef    = command.Definition[[]string]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformSugGetReply}
	sugScoreDef  = command.Definition[[]Suggestion]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformSugGetWithScoresReply}
	sugLenDef    = command.Definition[int64]{ReadOnly: true, FirstKeyIndex: 1, Reply: command.Int}

	// indexed by [noContent][withScores]
	searchDefs = [2][2]command.Definition[SearchReply]{
		{
			{ReadOnly: true, FirstKeyIndex: 1, Reply: searchReply(false, false)},
			{ReadOnly: true, FirstKeyIndex: 1, Reply: searchReply(false, true)},
		},
		{
			{ReadOnly: true, FirstKeyIndex: 1, Reply: searchReply(true, false)},
			{ReadOnly: true, FirstKeyIndex: 1, Reply: searchReply(true, true)},
		},
	}
)

// Create builds FT.CREATE.
func Create(index string, schema Schema, opts *CreateOptions) command.Cmd[string] {
	args := opts.appendTo(command.NewArgs("FT.CREATE", index))
	args = append(args, "SCHEMA")
	for _, field := range schema {
		args = field.appendTo(args)
	}
	return okDef.Build(args)
}

// DropIndex builds FT.DROPINDEX. deleteDocuments adds DD.
func DropIndex(index string, deleteDocuments bool) command.Cmd[string] {
	args := command.NewArgs("FT.DROPINDEX", index)
	return okDef.Build(command.PushFlag(args, "DD", deleteDocuments))
}

// Search builds FT.SEARCH.
func Search(index, query string, opts *SearchOptions) command.Cmd[SearchReply] {
	args := pushSearchOptions(command.NewArgs("FT.SEARCH", index, query), opts)

	var noContent, withScores int
	if opts != nil && opts.NoContent {
		noContent = 1
	}
	if opts != nil && opts.WithScores {
		withScores = 1
	}
	return searchDefs[noContent][withScores].Build(args)
}

// Aggregate builds FT.AGGREGATE.
func Aggregate(index, query string, opts *AggregateOptions) command.Cmd[AggregateReply] {
	return aggregateDef.Build(pushAggregateOptions(command.NewArgs("FT.AGGREGATE", index, query), opts))
}

// Info builds FT.INFO. The reply is kept as native values: its fields vary
// across server versions.
func Info(index string) command.Cmd[map[string]any] {
	return infoDef.Build(command.NewArgs("FT.INFO", index))
}

// Explain builds FT.EXPLAIN.
func Explain(index, query string, dialect int64) command.Cmd[string] {
	args := command.NewArgs("FT.EXPLAIN", index, query)
	return explainDef.Build(command.PushIntOption(args, "DIALECT", dialect))
}

// List builds FT._LIST.
func List() command.Cmd[[]string] {
	return listDef.Build(command.NewArgs("FT._LIST"))
}

// DictAdd builds FT.DICTADD. The reply is the number of new terms.
func DictAdd(dictionary string, terms ...string) command.Cmd[int64] {
	return intDef.Build(command.PushVariadic(command.NewArgs("FT.DICTADD", dictionary), terms...))
}

// DictDel builds FT.DICTDEL. The reply is the number of deleted terms.
func DictDel(dictionary string, terms ...string) command.Cmd[int64] {
	return intDef.Build(command.PushVariadic(command.NewArgs("FT.DICTDEL", dictionary), terms...))
}

// DictDump builds FT.DICTDUMP.
func DictDump(dictionary string) command.Cmd[[]string] {
	return stringsDef.Build(command.NewArgs("FT.DICTDUMP", dictionary))
}

// SynUpdateOptions are the options of FT.SYNUPDATE.
type SynUpdateOptions struct {
	SkipInitialScan bool
}

// SynUpdate builds FT.SYNUPDATE.
func SynUpdate(index, groupID string, terms []string, opts *SynUpdateOptions) command.Cmd[string] {
	args := command.NewArgs("FT.SYNUPDATE", index, groupID)
	if opts != nil {
		args = command.PushFlag(args, "SKIPINITIALSCAN", opts.SkipInitialScan)
	}
	return okDef.Build(command.PushVariadic(args, terms...))
}

// SynDump builds FT.SYNDUMP. The reply maps each term to its synonym groups.
func SynDump(index string) command.Cmd[map[string][]string] {
	return synDumpDef.Build(command.NewArgs("FT.SYNDUMP", index))
}

// TagVals builds FT.TAGVALS.
func TagVals(index, field string) command.Cmd[[]string] {
	return stringsDef.Build(command.NewArgs("FT.TAGVALS", index, field))
}

// AliasAdd builds FT.ALIASADD.
func AliasAdd(alias, index string) command.Cmd[string] {
	return okDef.Build(command.NewArgs("FT.ALIASADD", alias, index))
}

// AliasDel builds FT.ALIASDEL.
func AliasDel(alias string) command.Cmd[string] {
	return okDef.Build(command.NewArgs("FT.ALIASDEL", alias))
}

// AliasUpdate builds FT.ALIASUPDATE.
func AliasUpdate(alias, index string) command.Cmd[string] {
	return okDef.Build(command.NewArgs("FT.ALIASUPDATE", alias, index))
}

// ConfigGet builds FT.CONFIG GET. Use "*" for every option.
func ConfigGet(option string) command.Cmd[map[string]string] {
	return configGetDef.Build(command.NewArgs("FT.CONFIG", "GET", option))
}

// ConfigSet builds FT.CONFIG SET.
func ConfigSet(option, value string) command.Cmd[string] {
	return keylessOKDef.Build(command.NewArgs("FT.CONFIG", "SET", option, value))
}

// SugAddOptions are the options of FT.SUGADD.
type SugAddOptions struct {
	Incr    bool
	Payload string
}

// SugAdd builds FT.SUGADD. The reply is the size of the dictionary.
func SugAdd(key, suggestion string, score float64, opts *SugAddOptions) command.Cmd[int64] {
	args := command.NewArgs("FT.SUGADD", key, suggestion).AppendFloat(score)
	if opts != nil {
		args = command.PushFlag(args, "INCR", opts.Incr)
		args = command.PushStringOption(args, "PAYLOAD", opts.Payload)
	}
	return intDef.Build(args)
}

// SugGetOptions are the options of FT.SUGGET.
type SugGetOptions struct {
	Fuzzy bool
	Max   int64
}

func pushSugGetOptions(args command.Args, opts *SugGetOptions) command.Args {
	if opts == nil {
		return args
	}
	args = command.PushFlag(args, "FUZZY", opts.Fuzzy)
	return command.PushIntOption(args, "MAX", opts.Max)
}

// SugGet builds FT.SUGGET.
func SugGet(key, prefix string, opts *SugGetOptions) command.Cmd[[]string] {
	return sugGetDef.Build(pushSugGetOptions(command.NewArgs("FT.SUGGET", key, prefix), opts))
}

// Suggestion is one FT.SUGGET WITHSCORES result.
type Suggestion struct {
	String string
	Score  float64
}

// SugGetWithScores builds FT.SUGGET WITHSCORES.
func SugGetWithScores(key, prefix string, opts *SugGetOptions) command.Cmd[[]Suggestion] {
	args := pushSugGetOptions(command.NewArgs("FT.SUGGET", key, prefix), opts)
	return sugScoreDef.Build(append(args, "WITHSCORES"))
}

// SugDel builds FT.SUGDEL. The reply is false when the suggestion did not exist.
func SugDel(key, suggestion string) command.Cmd[bool] {
	return boolDef.Build(command.NewArgs("FT.SUGDEL", key, suggestion))
}

// SugLen builds FT.SUGLEN.
func SugLen(key string) command.Cmd[int64] {
	return sugLenDef.Build(command.NewArgs("FT.SUGLEN", key))
}

// transformSynDumpReply decodes [term, [group...], ...].
func transformSynDumpReply(v resp.Value) (map[string][]string, error) {
	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}
	if len(elems)%2 != 0 {
		return nil, command.NewReplyError("term/groups pairs", v)
	}

	out := make(map[string][]string, len(elems)/2)
	for i := 0; i < len(elems); i += 2 {
		term, err := command.String(elems[i])
		if err != nil {
			return nil, command.NewReplyError("term/groups pairs", v)
		}
		if out[term], err = command.Strings(elems[i+1]); err != nil {
			return nil, command.NewReplyError("term/groups pairs", v)
		}
	}
	return out, nil
}

func transformInfoReply(v resp.Value) (map[string]any, error) {
	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}
	if len(elems)%2 != 0 {
		return nil, command.NewReplyError("name/value pairs", v)
	}

	out := make(map[string]any, len(elems)/2)
	for i := 0; i < len(elems); i += 2 {
		name, err := command.String(elems[i])
		if err != nil {
			return nil, command.NewReplyError("name/value pairs", v)
		}
		out[name] = elems[i+1].Native()
	}
	return out, nil
}

// transformConfigGetReply decodes [[name, value], ...]. Unset options have
// an empty value.
func transformConfigGetReply(v resp.Value) (map[string]string, error) {
	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(elems))
	for _, elem := range elems {
		pair, err := command.Array(elem)
		if err != nil || len(pair) != 2 {
			return nil, command.NewReplyError("[name, value] pairs", v)
		}
		name, err := command.String(pair[0])
		if err != nil {
			return nil, command.NewReplyError("[name, value] pairs", v)
		}
		if pair[1].IsNull() {
			out[name] = ""
			continue
		}
		if out[name], err = command.String(pair[1]); err != nil {
			return nil, command.NewReplyError("[name, value] pairs", v)
		}
	}
	return out, nil
}

// transformSugGetReply treats a null reply (no match) as an empty list.
func transformSugGetReply(v resp.Value) ([]string, error) {
	if v.IsNull() {
		return []string{}, nil
	}
	return command.Strings(v)
}

func transformSugGetWithScoresReply(v resp.Value) ([]Suggestion, error) {
	if v.IsNull() {
		return []Suggestion{}, nil
	}
	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}
	if len(elems)%2 != 0 {
		return nil, command.NewReplyError("suggestion/score pairs", v)
	}

	out := make([]Suggestion, 0, len(elems)/2)
	for i := 0; i < len(elems); i += 2 {
		s, err := command.String(elems[i])
		if err != nil {
			return nil, command.NewReplyError("suggestion/score pairs", v)
		}
		score, err := command.Float(elems[i+1])
		if err != nil {
			return nil, command.NewReplyError("suggestion/score pairs", v)
		}
		out = append(out, Suggestion{String: s, Score: score})
	}
	return out, nil
}
