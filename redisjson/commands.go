package redisjson

import (
	"encoding/json"
	"fmt"

	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/resp"
)

// RootPath is the JSONPath of the whole document.
const RootPath = "$"

var (
	setDef     = command.Definition[bool]{FirstKeyIndex: 1, Reply: transformSetReply}
	getDef     = command.Definition[json.RawMessage]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformRawReply}
	mgetDef    = command.Definition[[]json.RawMessage]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformRawArrayReply}
	intDef     = command.Definition[int64]{FirstKeyIndex: 1, Reply: command.Int}
	rawDef     = command.Definition[json.RawMessage]{FirstKeyIndex: 1, Reply: transformRawReply}
	typeDef    = command.Definition[[]string]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformStringsReply}
	lengthsDef = command.Definition[[]*int64]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformLengthsReply}
	mutLenDef  = command.Definition[[]*int64]{FirstKeyIndex: 1, Reply: transformLengthsReply}
	objKeysDef = command.Definition[[][]string]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformObjKeysReply}
	arrPopDef  = command.Definition[[]json.RawMessage]{FirstKeyIndex: 1, Reply: transformRawArrayReply}
)

// Marshal encodes a value as a JSON command argument.
func Marshal(v any) (string, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return string(raw), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("redisjson: encoding value: %w", err)
	}
	return string(b), nil
}

// Decode unmarshals a JSON reply into T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("redisjson: decoding reply: %w", err)
	}
	return out, nil
}

// SetCondition restricts JSON.SET to existing (XX) or new (NX) paths.
type SetCondition string

const (
	IfNotExists SetCondition = "NX"
	IfExists    SetCondition = "XX"
)

// Set builds JSON.SET with an already encoded JSON value. The reply is
// false when the condition prevented the write.
func Set(key, path, value string, condition SetCondition) command.Cmd[bool] {
	args := command.NewArgs("JSON.SET", key, path, value)
	if condition != "" {
		args = append(args, string(condition))
	}
	return setDef.Build(args)
}

// GetOptions format the JSON.GET reply.
type GetOptions struct {
	Indent  string
	Newline string
	Space   string
}

// Get builds JSON.GET. With no path the root is returned in the legacy
// (non-array) form; with "$" paths every path yields an array of matches.
func Get(key string, opts *GetOptions, paths ...string) command.Cmd[json.RawMessage] {
	args := command.NewArgs("JSON.GET", key)
	if opts != nil {
		args = command.PushStringOption(args, "INDENT", opts.Indent)
		args = command.PushStringOption(args, "NEWLINE", opts.Newline)
		args = command.PushStringOption(args, "SPACE", opts.Space)
	}
	return getDef.Build(command.PushVariadic(args, paths...))
}

// MGet builds JSON.MGET. Missing keys have a nil entry.
func MGet(keys []string, path string) command.Cmd[[]json.RawMessage] {
	args := command.PushVariadic(command.NewArgs("JSON.MGET"), keys...)
	return mgetDef.Build(append(args, path))
}

func pushPath(args command.Args, path string) command.Args {
	if path == "" {
		return args
	}
	return append(args, path)
}

// Del builds JSON.DEL. The reply is the number of deleted values.
func Del(key, path string) command.Cmd[int64] {
	return intDef.Build(pushPath(command.NewArgs("JSON.DEL", key), path))
}

// Forget builds JSON.FORGET, an alias of JSON.DEL.
func Forget(key, path string) command.Cmd[int64] {
	return intDef.Build(pushPath(command.NewArgs("JSON.FORGET", key), path))
}

// Type builds JSON.TYPE.
func Type(key, path string) command.Cmd[[]string] {
	return typeDef.Build(pushPath(command.NewArgs("JSON.TYPE", key), path))
}

// NumIncrBy builds JSON.NUMINCRBY. The reply is the new value(s) as JSON.
func NumIncrBy(key, path string, by float64) command.Cmd[json.RawMessage] {
	return rawDef.Build(command.NewArgs("JSON.NUMINCRBY", key, path).AppendFloat(by))
}

// NumMultBy builds JSON.NUMMULTBY.
func NumMultBy(key, path string, by float64) command.Cmd[json.RawMessage] {
	return rawDef.Build(command.NewArgs("JSON.NUMMULTBY", key, path).AppendFloat(by))
}

// StrAppend builds JSON.STRAPPEND. value is a JSON-encoded string.
func StrAppend(key, path, value string) command.Cmd[[]*int64] {
	args := pushPath(command.NewArgs("JSON.STRAPPEND", key), path)
	return mutLenDef.Build(append(args, value))
}

// StrLen builds JSON.STRLEN.
func StrLen(key, path string) command.Cmd[[]*int64] {
	return lengthsDef.Build(pushPath(command.NewArgs("JSON.STRLEN", key), path))
}

// ArrAppend builds JSON.ARRAPPEND with JSON-encoded values.
func ArrAppend(key, path string, values ...string) command.Cmd[[]*int64] {
	args := command.NewArgs("JSON.ARRAPPEND", key, path)
	return mutLenDef.Build(command.PushVariadic(args, values...))
}

// ArrIndexOptions bounds the JSON.ARRINDEX search.
type ArrIndexOptions struct {
	Start int64
	Stop  int64
}

// ArrIndex builds JSON.ARRINDEX. -1 marks values not found.
func ArrIndex(key, path, value string, opts *ArrIndexOptions) command.Cmd[[]*int64] {
	args := command.NewArgs("JSON.ARRINDEX", key, path, value)
	if opts != nil {
		args = args.AppendInt(opts.Start)
		if opts.Stop != 0 {
			args = args.AppendInt(opts.Stop)
		}
	}
	return lengthsDef.Build(args)
}

// ArrInsert builds JSON.ARRINSERT.
func ArrInsert(key, path string, index int64, values ...string) command.Cmd[[]*int64] {
	args := command.NewArgs("JSON.ARRINSERT", key, path).AppendInt(index)
	return mutLenDef.Build(command.PushVariadic(args, values...))
}

// ArrLen builds JSON.ARRLEN.
func ArrLen(key, path string) command.Cmd[[]*int64] {
	return lengthsDef.Build(pushPath(command.NewArgs("JSON.ARRLEN", key), path))
}

// ArrPop builds JSON.ARRPOP. index is ignored unless path is set.
func ArrPop(key, path string, index *int64) command.Cmd[[]json.RawMessage] {
	args := pushPath(command.NewArgs("JSON.ARRPOP", key), path)
	if path != "" && index != nil {
		args = args.AppendInt(*index)
	}
	return arrPopDef.Build(args)
}

// ArrTrim builds JSON.ARRTRIM.
func ArrTrim(key, path string, start, stop int64) command.Cmd[[]*int64] {
	args := command.NewArgs("JSON.ARRTRIM", key, path).AppendInt(start).AppendInt(stop)
	return mutLenDef.Build(args)
}

// ObjKeys builds JSON.OBJKEYS.
func ObjKeys(key, path string) command.Cmd[[][]string] {
	return objKeysDef.Build(pushPath(command.NewArgs("JSON.OBJKEYS", key), path))
}

// ObjLen builds JSON.OBJLEN.
func ObjLen(key, path string) command.Cmd[[]*int64] {
	return lengthsDef.Build(pushPath(command.NewArgs("JSON.OBJLEN", key), path))
}

// Toggle builds JSON.TOGGLE. The reply holds the new boolean values as 0/1.
func Toggle(key, path string) command.Cmd[[]*int64] {
	return mutLenDef.Build(command.NewArgs("JSON.TOGGLE", key, path))
}

// Clear builds JSON.CLEAR. The reply is the number of cleared values.
func Clear(key, path string) command.Cmd[int64] {
	return intDef.Build(pushPath(command.NewArgs("JSON.CLEAR", key), path))
}

func transformSetReply(v resp.Value) (bool, error) {
	if v.IsNull() {
		return false, nil
	}
	if _, err := command.OK(v); err != nil {
		return false, err
	}
	return true, nil
}

// transformRawReply returns the JSON text of a bulk reply. A null reply
// (missing key) is the JSON null.
func transformRawReply(v resp.Value) (json.RawMessage, error) {
	if v.IsNull() {
		return json.RawMessage("null"), nil
	}
	s, err := command.String(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(s), nil
}

func transformRawArrayReply(v resp.Value) ([]json.RawMessage, error) {
	if v.Kind != resp.KindArray {
		// legacy path syntax returns a single value
		raw, err := transformRawReply(v)
		if err != nil {
			return nil, err
		}
		return []json.RawMessage{raw}, nil
	}

	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, len(elems))
	for i, elem := range elems {
		if elem.IsNull() {
			continue
		}
		if out[i], err = transformRawReply(elem); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// transformLengthsReply decodes integer replies, one per matched path. A
// nil entry is a path whose value has the wrong type. A scalar reply
// (legacy path syntax) yields one entry.
func transformLengthsReply(v resp.Value) ([]*int64, error) {
	if v.IsNull() {
		return []*int64{nil}, nil
	}
	if v.Kind == resp.KindInteger {
		n := v.Int
		return []*int64{&n}, nil
	}

	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}
	out := make([]*int64, len(elems))
	for i, elem := range elems {
		if elem.IsNull() {
			continue
		}
		n, err := command.Int(elem)
		if err != nil {
			return nil, command.NewReplyError("array of integers or nulls", v)
		}
		out[i] = &n
	}
	return out, nil
}

func transformStringsReply(v resp.Value) ([]string, error) {
	if v.IsNull() {
		return nil, command.ErrNil
	}
	if v.Kind != resp.KindArray {
		s, err := command.String(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}

	elems := v.Array
	out := make([]string, 0, len(elems))
	for _, elem := range elems {
		// RESP2 JSON.TYPE with a "$" path nests each type in its own array
		if elem.Kind == resp.KindArray {
			for _, inner := range elem.Array {
				s, err := command.String(inner)
				if err != nil {
					return nil, command.NewReplyError("array of types", v)
				}
				out = append(out, s)
			}
			continue
		}
		s, err := command.String(elem)
		if err != nil {
			return nil, command.NewReplyError("array of types", v)
		}
		out = append(out, s)
	}
	return out, nil
}

func transformObjKeysReply(v resp.Value) ([][]string, error) {
	if v.IsNull() {
		return [][]string{nil}, nil
	}
	elems, err := command.Array(v)
	if err != nil {
		return nil, err
	}

	// legacy path syntax: a flat list of keys
	if len(elems) == 0 || elems[0].Kind != resp.KindArray && !elems[0].IsNull() {
		keys, err := command.Strings(v)
		if err != nil {
			return nil, err
		}
		return [][]string{keys}, nil
	}

	out := make([][]string, len(elems))
	for i, elem := range elems {
		if elem.IsNull() {
			continue
		}
		if out[i], err = command.Strings(elem); err != nil {
			return nil, err
		}
	}
	return out, nil
}
