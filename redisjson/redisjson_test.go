package redisjson

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTokens(t *testing.T) {
	one := int64(1)

	tests := []struct {
		name     string
		cmd      command.Completed
		expected []string
		readOnly bool
	}{
		{"SET", Set("key", "$", `{"a":1}`, ""), []string{"JSON.SET", "key", "$", `{"a":1}`}, false},
		{"SET NX", Set("key", "$", "1", IfNotExists), []string{"JSON.SET", "key", "$", "1", "NX"}, false},
		{"GET", Get("key", nil), []string{"JSON.GET", "key"}, true},
		{
			"GET formatted",
			Get("key", &GetOptions{Indent: "\t", Newline: "\n", Space: " "}, "$.a", "$.b"),
			[]string{"JSON.GET", "key", "INDENT", "\t", "NEWLINE", "\n", "SPACE", " ", "$.a", "$.b"},
			true,
		},
		{"MGET", MGet([]string{"a", "b"}, "$"), []string{"JSON.MGET", "a", "b", "$"}, true},
		{"DEL", Del("key", ""), []string{"JSON.DEL", "key"}, false},
		{"DEL path", Del("key", "$.a"), []string{"JSON.DEL", "key", "$.a"}, false},
		{"FORGET", Forget("key", "$"), []string{"JSON.FORGET", "key", "$"}, false},
		{"TYPE", Type("key", "$"), []string{"JSON.TYPE", "key", "$"}, true},
		{"NUMINCRBY", NumIncrBy("key", "$.n", 1.5), []string{"JSON.NUMINCRBY", "key", "$.n", "1.5"}, false},
		{"NUMMULTBY", NumMultBy("key", "$.n", 2), []string{"JSON.NUMMULTBY", "key", "$.n", "2"}, false},
		{"STRAPPEND", StrAppend("key", "$.s", `"x"`), []string{"JSON.STRAPPEND", "key", "$.s", `"x"`}, false},
		{"STRLEN", StrLen("key", "$.s"), []string{"JSON.STRLEN", "key", "$.s"}, true},
		{"ARRAPPEND", ArrAppend("key", "$.a", "1", "2"), []string{"JSON.ARRAPPEND", "key", "$.a", "1", "2"}, false},
		{"ARRINDEX", ArrIndex("key", "$.a", "1", nil), []string{"JSON.ARRINDEX", "key", "$.a", "1"}, true},
		{"ARRINDEX range", ArrIndex("key", "$.a", "1", &ArrIndexOptions{Start: 1, Stop: 3}), []string{"JSON.ARRINDEX", "key", "$.a", "1", "1", "3"}, true},
		{"ARRINSERT", ArrInsert("key", "$.a", 0, "1"), []string{"JSON.ARRINSERT", "key", "$.a", "0", "1"}, false},
		{"ARRLEN", ArrLen("key", "$.a"), []string{"JSON.ARRLEN", "key", "$.a"}, true},
		{"ARRPOP", ArrPop("key", "", &one), []string{"JSON.ARRPOP", "key"}, false},
		{"ARRPOP index", ArrPop("key", "$.a", &one), []string{"JSON.ARRPOP", "key", "$.a", "1"}, false},
		{"ARRTRIM", ArrTrim("key", "$.a", 0, -1), []string{"JSON.ARRTRIM", "key", "$.a", "0", "-1"}, false},
		{"OBJKEYS", ObjKeys("key", "$"), []string{"JSON.OBJKEYS", "key", "$"}, true},
		{"OBJLEN", ObjLen("key", "$"), []string{"JSON.OBJLEN", "key", "$"}, true},
		{"TOGGLE", Toggle("key", "$.b"), []string{"JSON.TOGGLE", "key", "$.b"}, false},
		{"CLEAR", Clear("key", "$"), []string{"JSON.CLEAR", "key", "$"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cmd.Args())
			assert.Equal(t, tt.readOnly, tt.cmd.IsReadOnly())

			key, ok := tt.cmd.Key()
			assert.True(t, ok)
			assert.NotEmpty(t, key)
		})
	}
}

func TestReplies(t *testing.T) {
	t.Run("SET", func(t *testing.T) {
		ok, err := Set("k", "$", "1", "").Decode(resp.SimpleString("OK"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = Set("k", "$", "1", IfExists).Decode(resp.NullBulk())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("GET", func(t *testing.T) {
		raw, err := Get("k", nil, "$.name").Decode(resp.BulkString(`["Alice"]`))
		require.NoError(t, err)
		names, err := Decode[[]string](raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice"}, names)

		raw, err = Get("missing", nil).Decode(resp.NullBulk())
		require.NoError(t, err)
		assert.JSONEq(t, "null", string(raw))
	})

	t.Run("MGET", func(t *testing.T) {
		raws, err := MGet([]string{"a", "b"}, "$").Decode(resp.ArrayOf(resp.BulkString(`[1]`), resp.NullBulk()))
		require.NoError(t, err)
		assert.Equal(t, []json.RawMessage{json.RawMessage(`[1]`), nil}, raws)
	})

	t.Run("lengths", func(t *testing.T) {
		lens, err := ArrLen("k", "$..a").Decode(resp.ArrayOf(resp.Integer(3), resp.NullBulk()))
		require.NoError(t, err)
		require.Len(t, lens, 2)
		assert.Equal(t, int64(3), *lens[0])
		assert.Nil(t, lens[1])

		lens, err = StrLen("k", ".s").Decode(resp.Integer(5))
		require.NoError(t, err)
		require.Len(t, lens, 1)
		assert.Equal(t, int64(5), *lens[0])
	})

	t.Run("TYPE", func(t *testing.T) {
		types, err := Type("k", "$").Decode(resp.ArrayOf(resp.ArrayOf(resp.BulkString("object"))))
		require.NoError(t, err)
		assert.Equal(t, []string{"object"}, types)

		types, err = Type("k", "").Decode(resp.BulkString("object"))
		require.NoError(t, err)
		assert.Equal(t, []string{"object"}, types)
	})

	t.Run("OBJKEYS", func(t *testing.T) {
		keys, err := ObjKeys("k", "$").Decode(resp.ArrayOf(
			resp.ArrayOf(resp.BulkString("a"), resp.BulkString("b")),
			resp.NullArray(),
		))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a", "b"}, nil}, keys)

		keys, err = ObjKeys("k", ".").Decode(resp.ArrayOf(resp.BulkString("a")))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a"}}, keys)
	})

	t.Run("ARRPOP", func(t *testing.T) {
		popped, err := ArrPop("k", "$.a", nil).Decode(resp.ArrayOf(resp.BulkString("3")))
		require.NoError(t, err)
		assert.Equal(t, []json.RawMessage{json.RawMessage("3")}, popped)
	})

	t.Run("shape error", func(t *testing.T) {
		_, err := Del("k", "").Decode(resp.BulkString("1"))
		assert.ErrorIs(t, err, command.ErrUnexpectedReply)
	})
}

func TestMarshal(t *testing.T) {
	s, err := Marshal(map[string]any{"name": "Alice", "age": 32})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Alice","age":32}`, s)

	s, err = Marshal(json.RawMessage(`{"raw":true}`))
	require.NoError(t, err)
	assert.Equal(t, `{"raw":true}`, s)

	_, err = Marshal(make(chan int))
	assert.Error(t, err)
}

type recorder struct {
	sent  [][]string
	reply resp.Value
}

func (r *recorder) Execute(ctx context.Context, cmd command.Completed) (resp.Value, error) {
	r.sent = append(r.sent, cmd.Args())
	return r.reply, nil
}

func TestCommands(t *testing.T) {
	rec := &recorder{reply: resp.SimpleString("OK")}
	j := New(rec)

	type user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	ok, err := j.Set(t.Context(), "users:1", RootPath, user{Name: "Bob", Age: 23}, "")
	require.NoError(t, err)
	assert.True(t, ok)

	rec.reply = resp.BulkString(`[{"name":"Bob","age":23}]`)
	var got []user
	require.NoError(t, j.GetInto(t.Context(), "users:1", RootPath, &got))
	assert.Equal(t, []user{{Name: "Bob", Age: 23}}, got)

	rec.reply = resp.ArrayOf(resp.Integer(3))
	_, err = j.ArrAppend(t.Context(), "users:1", "$.tags", "a", 2)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"JSON.SET", "users:1", "$", `{"name":"Bob","age":23}`},
		{"JSON.GET", "users:1", "$"},
		{"JSON.ARRAPPEND", "users:1", "$.tags", `"a"`, "2"},
	}, rec.sent)
}
