package redisstack

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"time"

	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/resp"
)

var (
	stringDef     = command.Definition[string]{Reply: command.String}
	okDef         = command.Definition[string]{Reply: command.OK}
	setDef        = command.Definition[string]{FirstKeyIndex: 1, Reply: command.String}
	getDef        = command.Definition[string]{ReadOnly: true, FirstKeyIndex: 1, Reply: command.String}
	keysIntDef    = command.Definition[int64]{FirstKeyIndex: 1, Reply: command.Int}
	keysIntRODef  = command.Definition[int64]{ReadOnly: true, FirstKeyIndex: 1, Reply: command.Int}
	expireDef     = command.Definition[bool]{FirstKeyIndex: 1, Reply: command.Bool}
	publishDef    = command.Definition[int64]{Reply: command.Int}
	clientNameDef = command.Definition[string]{Reply: transformClientNameReply}
	scanDef       = command.Definition[ScanReply]{ReadOnly: true, Reply: transformScanReply}
	keyScanDef    = command.Definition[ScanReply]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformScanReply}
	zscanDef      = command.Definition[ZScanReply]{ReadOnly: true, FirstKeyIndex: 1, Reply: transformZScanReply}
)

// Ping builds PING, with an optional message echoed back.
func Ping(message string) command.Cmd[string] {
	return stringDef.Build(command.PushIf(command.NewArgs("PING"), message != "", message))
}

func Echo(message string) command.Cmd[string] {
	return stringDef.Build(command.NewArgs("ECHO", message))
}

// SetCondition restricts SET to new (NX) or existing (XX) keys.
type SetCondition string

const (
	IfNotExists SetCondition = "NX"
	IfExists    SetCondition = "XX"
)

// SetOptions are the options of SET. The expiration options are exclusive;
// the first one set in field order wins.
type SetOptions struct {
	// Expiration is sent as EX when it is a whole number of seconds, PX otherwise.
	Expiration time.Duration

	// ExpireAt is sent as PXAT.
	ExpireAt time.Time

	// KeepTTL retains the current time to live of the key.
	KeepTTL bool

	Condition SetCondition
}

func pushSetOptions(args command.Args, opts *SetOptions) command.Args {
	if opts == nil {
		return args
	}

	switch {
	case opts.Expiration > 0 && opts.Expiration%time.Second == 0:
		args = args.Append("EX").AppendInt(int64(opts.Expiration / time.Second))
	case opts.Expiration > 0:
		args = args.Append("PX").AppendInt(opts.Expiration.Milliseconds())
	case !opts.ExpireAt.IsZero():
		args = args.Append("PXAT").AppendInt(opts.ExpireAt.UnixMilli())
	case opts.KeepTTL:
		args = args.Append("KEEPTTL")
	}

	if opts.Condition != "" {
		args = append(args, string(opts.Condition))
	}
	return args
}

// Set builds SET. The reply is "OK"; command.ErrNil when the condition
// prevented the write.
func Set(key, value string, opts *SetOptions) command.Cmd[string] {
	return setDef.Build(pushSetOptions(command.NewArgs("SET", key, value), opts))
}

// SetGet builds SET ... GET. The reply is the previous value, command.ErrNil
// when the key did not exist.
func SetGet(key, value string, opts *SetOptions) command.Cmd[string] {
	args := pushSetOptions(command.NewArgs("SET", key, value), opts)
	return setDef.Build(append(args, "GET"))
}

// Get builds GET. A missing key yields command.ErrNil.
func Get(key string) command.Cmd[string] {
	return getDef.Build(command.NewArgs("GET", key))
}

// Del builds DEL. The reply is the number of deleted keys.
func Del(keys ...string) command.Cmd[int64] {
	return keysIntDef.Build(command.PushVariadic(command.NewArgs("DEL"), keys...))
}

// Exists builds EXISTS. A key given twice is counted twice.
func Exists(keys ...string) command.Cmd[int64] {
	return keysIntRODef.Build(command.PushVariadic(command.NewArgs("EXISTS"), keys...))
}

func Incr(key string) command.Cmd[int64] {
	return keysIntDef.Build(command.NewArgs("INCR", key))
}

func IncrBy(key string, increment int64) command.Cmd[int64] {
	return keysIntDef.Build(command.NewArgs("INCRBY", key).AppendInt(increment))
}

func Decr(key string) command.Cmd[int64] {
	return keysIntDef.Build(command.NewArgs("DECR", key))
}

// Expire builds EXPIRE with a whole number of seconds. The reply is false
// when the key does not exist.
func Expire(key string, ttl time.Duration) command.Cmd[bool] {
	return expireDef.Build(command.NewArgs("EXPIRE", key).AppendInt(int64(ttl / time.Second)))
}

// TTL builds TTL. The reply is in seconds: -1 when the key has no
// expiration, -2 when it does not exist.
func TTL(key string) command.Cmd[int64] {
	return keysIntRODef.Build(command.NewArgs("TTL", key))
}

func FlushAll() command.Cmd[string] {
	return okDef.Build(command.NewArgs("FLUSHALL"))
}

// Publish builds PUBLISH. The reply is the number of receiving clients.
func Publish(channel, message string) command.Cmd[int64] {
	return publishDef.Build(command.NewArgs("PUBLISH", channel, message))
}

// SAdd builds SADD. The reply is the number of members added.
func SAdd(key string, members ...string) command.Cmd[int64] {
	return keysIntDef.Build(command.PushVariadic(command.NewArgs("SADD", key), members...))
}

// Z is a sorted set member.
type Z struct {
	Score  float64
	Member string
}

// ZAdd builds ZADD. The reply is the number of members added.
func ZAdd(key string, members ...Z) command.Cmd[int64] {
	args := command.NewArgs("ZADD", key)
	for _, m := range members {
		args = args.AppendFloat(m.Score).Append(m.Member)
	}
	return keysIntDef.Build(args)
}

func ClientSetName(name string) command.Cmd[string] {
	return okDef.Build(command.NewArgs("CLIENT", "SETNAME", name))
}

// ClientGetName builds CLIENT GETNAME. The reply is empty when no name is set.
func ClientGetName() command.Cmd[string] {
	return clientNameDef.Build(command.NewArgs("CLIENT", "GETNAME"))
}

func transformClientNameReply(v resp.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	return command.String(v)
}

// ScanOptions filter SCAN, SSCAN and ZSCAN.
type ScanOptions struct {
	Match string
	Count int64

	// Type filters SCAN by value type (string, list, set, zset, hash, stream).
	Type string
}

func pushScanOptions(args command.Args, opts *ScanOptions) command.Args {
	if opts == nil {
		return args
	}
	args = command.PushStringOption(args, "MATCH", opts.Match)
	args = command.PushIntOption(args, "COUNT", opts.Count)
	return command.PushStringOption(args, "TYPE", opts.Type)
}

// ScanReply is one page of SCAN or SSCAN. A zero Cursor ends the iteration.
type ScanReply struct {
	Cursor uint64
	Keys   []string
}

// ZScanReply is one page of ZSCAN.
type ZScanReply struct {
	Cursor  uint64
	Members []Z
}

// Scan builds SCAN.
func Scan(cursor uint64, opts *ScanOptions) command.Cmd[ScanReply] {
	args := command.NewArgs("SCAN", strconv.FormatUint(cursor, 10))
	return scanDef.Build(pushScanOptions(args, opts))
}

// SScan builds SSCAN. ScanOptions.Type is not supported by the server for SSCAN.
func SScan(key string, cursor uint64, opts *ScanOptions) command.Cmd[ScanReply] {
	args := command.NewArgs("SSCAN", key, strconv.FormatUint(cursor, 10))
	return keyScanDef.Build(pushScanOptions(args, opts))
}

// ZScan builds ZSCAN.
func ZScan(key string, cursor uint64, opts *ScanOptions) command.Cmd[ZScanReply] {
	args := command.NewArgs("ZSCAN", key, strconv.FormatUint(cursor, 10))
	return zscanDef.Build(pushScanOptions(args, opts))
}

func decodeScanPage(v resp.Value) (uint64, resp.Value, error) {
	elems, err := command.Array(v)
	if err != nil {
		return 0, resp.Value{}, err
	}
	if len(elems) != 2 {
		return 0, resp.Value{}, command.NewReplyError("[cursor, elements]", v)
	}

	s, err := command.String(elems[0])
	if err != nil {
		return 0, resp.Value{}, command.NewReplyError("[cursor, elements]", v)
	}
	cursor, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, resp.Value{}, command.NewReplyError("numeric cursor", v)
	}
	return cursor, elems[1], nil
}

func transformScanReply(v resp.Value) (ScanReply, error) {
	cursor, elems, err := decodeScanPage(v)
	if err != nil {
		return ScanReply{}, err
	}
	keys, err := command.Strings(elems)
	if err != nil {
		return ScanReply{}, err
	}
	return ScanReply{Cursor: cursor, Keys: keys}, nil
}

func transformZScanReply(v resp.Value) (ZScanReply, error) {
	cursor, elems, err := decodeScanPage(v)
	if err != nil {
		return ZScanReply{}, err
	}
	flat, err := command.Strings(elems)
	if err != nil {
		return ZScanReply{}, err
	}
	if len(flat)%2 != 0 {
		return ZScanReply{}, command.NewReplyError("member/score pairs", v)
	}

	members := make([]Z, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		score, err := command.ParseFloat(flat[i+1])
		if err != nil {
			return ZScanReply{}, command.NewReplyError("numeric score", v)
		}
		members = append(members, Z{Member: flat[i], Score: score})
	}
	return ZScanReply{Cursor: cursor, Members: members}, nil
}

// Ping checks the connectivity of the server owning no key (the first one).
func (c *Client) Ping(ctx context.Context) error {
	_, err := command.Do(ctx, c, Ping(""))
	return err
}

// Echo returns message as echoed by the server.
func (c *Client) Echo(ctx context.Context, message string) (string, error) {
	return command.Do(ctx, c, Echo(message))
}

// Set stores value at key. It returns false when opts.Condition prevented the write.
func (c *Client) Set(ctx context.Context, key, value string, opts *SetOptions) (bool, error) {
	_, err := command.Do(ctx, c, Set(key, value, opts))
	if errors.Is(err, command.ErrNil) {
		return false, nil
	}
	return err == nil, err
}

// Get returns the value of key. A missing key yields command.ErrNil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return command.Do(ctx, c, Get(key))
}

// Del deletes keys and returns how many existed. Keys must live on the same server.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return command.Do(ctx, c, Del(keys...))
}

func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	return command.Do(ctx, c, Exists(keys...))
}

func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return command.Do(ctx, c, Incr(key))
}

func (c *Client) IncrBy(ctx context.Context, key string, increment int64) (int64, error) {
	return command.Do(ctx, c, IncrBy(key, increment))
}

func (c *Client) Decr(ctx context.Context, key string) (int64, error) {
	return command.Do(ctx, c, Decr(key))
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return command.Do(ctx, c, Expire(key, ttl))
}

func (c *Client) TTL(ctx context.Context, key string) (int64, error) {
	return command.Do(ctx, c, TTL(key))
}

// FlushAll removes every key of the first server.
func (c *Client) FlushAll(ctx context.Context) error {
	_, err := command.Do(ctx, c, FlushAll())
	return err
}

func (c *Client) Publish(ctx context.Context, channel, message string) (int64, error) {
	return command.Do(ctx, c, Publish(channel, message))
}

func (c *Client) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	return command.Do(ctx, c, SAdd(key, members...))
}

func (c *Client) ZAdd(ctx context.Context, key string, members ...Z) (int64, error) {
	return command.Do(ctx, c, ZAdd(key, members...))
}

// ScanIterator iterates over the keys of the first server, one SCAN page at
// a time. A key may be yielded more than once (SCAN guarantee). Iteration
// stops at the first error.
func (c *Client) ScanIterator(ctx context.Context, opts *ScanOptions) iter.Seq2[string, error] {
	return scanAll(func(cursor uint64) ([]string, uint64, error) {
		page, err := command.Do(ctx, c, Scan(cursor, opts))
		return page.Keys, page.Cursor, err
	})
}

// SScanIterator iterates over the members of a set.
func (c *Client) SScanIterator(ctx context.Context, key string, opts *ScanOptions) iter.Seq2[string, error] {
	return scanAll(func(cursor uint64) ([]string, uint64, error) {
		page, err := command.Do(ctx, c, SScan(key, cursor, opts))
		return page.Keys, page.Cursor, err
	})
}

// ZScanIterator iterates over the members of a sorted set with their scores.
func (c *Client) ZScanIterator(ctx context.Context, key string, opts *ScanOptions) iter.Seq2[Z, error] {
	return scanAll(func(cursor uint64) ([]Z, uint64, error) {
		page, err := command.Do(ctx, c, ZScan(key, cursor, opts))
		return page.Members, page.Cursor, err
	})
}

func scanAll[T any](next func(cursor uint64) ([]T, uint64, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var cursor uint64
		for {
			items, nextCursor, err := next(cursor)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			if nextCursor == 0 {
				return
			}
			cursor = nextCursor
		}
	}
}
