// Package redisstack is a Redis client with typed commands for the base
// protocol and the RediSearch, RedisJSON and RedisTimeSeries modules.
//
// Every command is a command.Cmd built by a pure constructor; the Client
// executes it on a pooled connection of the server selected for its key:
//
//	client, err := redisstack.NewClient(redisstack.Config{Addrs: []string{"localhost:6379"}})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	value, err := client.Get(ctx, "key")
//	samples, err := client.TS().Range(ctx, "temperature", timeseries.Start, timeseries.End, nil)
//
// Commands without a typed method run through command.Do, and transactions
// through Multi. Legacy exposes the callback calling convention, where
// replies are store-native values.
package redisstack
