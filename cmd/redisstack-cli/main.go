package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pior/redisstack"
	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/internal/codec"
	"github.com/pior/redisstack/internal/output"
)

var (
	version = "dev"

	host      string
	port      string
	username  string
	password  string
	db        int
	cmdStr    string
	codecName string
	raw       bool
	verbose   bool
	timeout   time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "redisstack-cli",
		Short:        "Command line client for Redis with RediSearch, RedisJSON and RedisTimeSeries",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, opts, err := setup()
			if err != nil {
				return err
			}
			defer client.Close()

			if cmdStr != "" {
				return runOneShot(client, opts)
			}
			return runRepl(client, opts)
		},
	}

	rootCmd.Flags().StringVarP(&host, "host", "H", "localhost", "Redis server host")
	rootCmd.Flags().StringVarP(&port, "port", "p", "6379", "Redis server port")
	rootCmd.Flags().StringVarP(&username, "username", "u", "", "Redis ACL username")
	rootCmd.Flags().StringVar(&password, "password", "", "Redis password")
	rootCmd.Flags().IntVarP(&db, "db", "n", 0, "Database number")
	rootCmd.Flags().StringVarP(&cmdStr, "command", "c", "", "Execute a single command and exit")
	rootCmd.Flags().StringVar(&codecName, "decode", "", "Decode bulk strings before printing (base64, gzip, snappy, zstd)")
	rootCmd.Flags().BoolVar(&raw, "raw", false, "Print replies without type annotations")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log connection events")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Per-command timeout")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*redisstack.Client, output.Options, error) {
	opts := output.Options{Color: !color.NoColor}
	if codecName != "" {
		c, err := codec.Get(codecName)
		if err != nil {
			return nil, opts, err
		}
		opts.Codec = c
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	client, err := redisstack.NewClient(redisstack.Config{
		Addrs:      []string{net.JoinHostPort(host, port)},
		Username:   username,
		Password:   password,
		DB:         db,
		ClientName: "redisstack-cli",
		MaxSize:    1,
		Logger:     logger,
	})
	if err != nil {
		return nil, opts, err
	}
	return client, opts, nil
}

func runOneShot(client *redisstack.Client, opts output.Options) error {
	tokens, err := tokenize(cmdStr)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	// no colors for scripts
	opts.Color = false
	return execute(os.Stdout, client, tokens, opts)
}

func execute(w io.Writer, client *redisstack.Client, tokens []string, opts output.Options) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reply, err := client.Execute(ctx, command.Raw(tokens...))
	if err != nil {
		return fmt.Errorf("%s failed: %w", tokens[0], err)
	}

	if raw {
		output.Raw(w, reply, opts)
	} else {
		output.Print(w, reply, opts)
	}
	return nil
}
