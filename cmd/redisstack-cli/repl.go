package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/pior/redisstack"
	"github.com/pior/redisstack/internal/output"
)

// knownCommands feeds tab completion.
var knownCommands = []string{
	"APPEND", "CLIENT", "DBSIZE", "DECR", "DEL", "ECHO", "EVAL", "EVALSHA",
	"EXISTS", "EXPIRE", "FLUSHALL", "GET", "HGET", "HGETALL", "HSET", "INCR",
	"INCRBY", "INFO", "KEYS", "PING", "PUBLISH", "SADD", "SCAN", "SCRIPT",
	"SET", "SMEMBERS", "SSCAN", "TTL", "TYPE", "ZADD", "ZRANGE", "ZSCAN",
	"FT.AGGREGATE", "FT.ALIASADD", "FT.ALIASDEL", "FT.ALIASUPDATE", "FT.ALTER",
	"FT.CONFIG", "FT.CREATE", "FT.CURSOR", "FT.DICTADD", "FT.DICTDEL",
	"FT.DICTDUMP", "FT.DROPINDEX", "FT.EXPLAIN", "FT.INFO", "FT.PROFILE",
	"FT.SEARCH", "FT.SPELLCHECK", "FT.SUGADD", "FT.SUGDEL", "FT.SUGGET",
	"FT.SUGLEN", "FT.SYNDUMP", "FT.SYNUPDATE", "FT.TAGVALS", "FT._LIST",
	"JSON.ARRAPPEND", "JSON.ARRINDEX", "JSON.ARRINSERT", "JSON.ARRLEN",
	"JSON.ARRPOP", "JSON.ARRTRIM", "JSON.CLEAR", "JSON.DEL", "JSON.FORGET",
	"JSON.GET", "JSON.MERGE", "JSON.MGET", "JSON.MSET", "JSON.NUMINCRBY",
	"JSON.NUMMULTBY", "JSON.OBJKEYS", "JSON.OBJLEN", "JSON.RESP", "JSON.SET",
	"JSON.STRAPPEND", "JSON.STRLEN", "JSON.TOGGLE", "JSON.TYPE",
	"TS.ADD", "TS.ALTER", "TS.CREATE", "TS.CREATERULE", "TS.DECRBY", "TS.DEL",
	"TS.DELETERULE", "TS.GET", "TS.INCRBY", "TS.INFO", "TS.MADD", "TS.MGET",
	"TS.MRANGE", "TS.MREVRANGE", "TS.QUERYINDEX", "TS.RANGE", "TS.REVRANGE",
}

type completer struct{}

// Do completes the command word only.
func (completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	text := string(line[:pos])
	if strings.Contains(text, " ") {
		return nil, 0
	}

	prefix := strings.ToUpper(text)
	for _, name := range knownCommands {
		if strings.HasPrefix(name, prefix) {
			newLine = append(newLine, []rune(name[len(text):]+" "))
		}
	}
	return newLine, len(text)
}

func runRepl(client *redisstack.Client, opts output.Options) error {
	historyFile := ""
	if homeDir, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(homeDir, ".redisstack_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s:%s> ", host, port),
		HistoryFile:     historyFile,
		AutoComplete:    completer{},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if slices.Contains([]string{"quit", "exit"}, strings.ToLower(line)) {
			return nil
		}

		tokens, err := tokenize(line)
		if err != nil {
			color.Red("Parse error: %v", err)
			continue
		}

		if err := execute(rl.Stdout(), client, tokens, opts); err != nil {
			color.Red("%v", err)
		}
	}
}
