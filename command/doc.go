// Package command is the argument/reply transformation layer shared by the
// base commands and the module packages (timeseries, search, redisjson).
//
// A command is described once by a Definition: whether it only reads data
// (a routing hint for replica reads), where its first key sits in the token
// sequence (for server selection), and how its raw reply maps to a Go value.
// Building a Definition with a token sequence yields a Cmd, an immutable
// invocation that any Executor can run:
//
//	var getDef = command.Definition[string]{ReadOnly: true, FirstKeyIndex: 1, Reply: command.String}
//
//	func Get(key string) command.Cmd[string] {
//	    return getDef.Build(command.NewArgs("GET", key))
//	}
//
//	value, err := command.Do(ctx, client, Get("key"))
//
// Token sequences are assembled with the Push helpers. Each helper appends
// one optional clause and is the identity when the option is absent, so
// options are applied in a fixed order and never by walking a map.
//
// This package performs no I/O, logging or retries.
package command
