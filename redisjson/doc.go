// Package redisjson implements the RedisJSON commands (JSON.*).
//
// The constructors take values that are already JSON-encoded; Commands
// encodes Go values with encoding/json:
//
//	j := client.JSON()
//	ok, err := j.Set(ctx, "users:1", redisjson.RootPath, User{Name: "Alice", Age: 32}, "")
//
//	raw, err := j.Get(ctx, "users:1", nil, "$.name")
//	names, err := redisjson.Decode[[]string](raw)
package redisjson
