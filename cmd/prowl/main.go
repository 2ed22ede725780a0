// Package main provides the prowl command: fetch a URL through a real
// browser engine and print the assembled response.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/entrhq/prowl/pkg/browser"
	"github.com/entrhq/prowl/pkg/config"
	"github.com/entrhq/prowl/pkg/fetch"
	"github.com/entrhq/prowl/pkg/stats"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigFile  string
	URL         string
	Context     string
	Method      string
	Timeout     time.Duration
	Title       bool
	ShowHeaders bool
	ShowStats   bool
	OutputFile  string
	ShowVersion bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("prowl v%s\n", version)
		return
	}
	if cli.URL == "" {
		fmt.Fprintln(os.Stderr, "a URL is required (-url)")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nshutting down...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		log.Printf("fetch failed: %v", err)
		os.Exit(1)
	}
}

func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to YAML config file")
	flag.StringVar(&cli.URL, "url", "", "URL to fetch")
	flag.StringVar(&cli.Context, "context", "", "Target browser context name")
	flag.StringVar(&cli.Method, "method", http.MethodGet, "Navigation request method")
	flag.DurationVar(&cli.Timeout, "timeout", 2*time.Minute, "Overall fetch timeout")
	flag.BoolVar(&cli.Title, "title", false, "Also capture the page title")
	flag.BoolVar(&cli.ShowHeaders, "show-headers", false, "Print response headers to stderr")
	flag.BoolVar(&cli.ShowStats, "show-stats", false, "Print pool counters to stderr")
	flag.StringVar(&cli.OutputFile, "out", "", "Write the body to a file instead of stdout")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")
	flag.Parse()

	return cli
}

func run(ctx context.Context, cli *CLIConfig) error {
	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return err
	}

	collector := stats.NewMemory()
	pool := browser.NewPoolManager(cfg, collector)
	if err := pool.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := pool.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	fetcher, err := fetch.NewFetcher(cfg, pool)
	if err != nil {
		return err
	}

	req := &fetch.Request{
		URL:     cli.URL,
		Method:  cli.Method,
		Headers: http.Header{},
		Options: fetch.Options{
			Context: cli.Context,
		},
	}

	var titleAction *fetch.Action
	if cli.Title {
		titleAction = &fetch.Action{Name: fetch.ActionTitle}
		req.Options.Actions = append(req.Options.Actions, titleAction)
	}

	fetchCtx := ctx
	if cli.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
	}

	result, err := fetcher.Fetch(fetchCtx, req)
	if err != nil {
		return err
	}

	resp := result.Response
	fmt.Fprintf(os.Stderr, "%d %s (%s, %s, %d bytes, %s)\n",
		resp.Status, resp.URL, resp.Class, resp.Encoding, len(resp.Body), result.Latency.Round(time.Millisecond))
	if resp.IP.IsValid() {
		fmt.Fprintf(os.Stderr, "peer: %s\n", resp.IP)
	}
	if resp.Security != nil {
		fmt.Fprintf(os.Stderr, "tls: %s (%s)\n", resp.Security.Protocol, resp.Security.Issuer)
	}
	if titleAction != nil {
		fmt.Fprintf(os.Stderr, "title: %v\n", titleAction.Result)
	}

	if cli.ShowHeaders {
		for name, values := range resp.Headers {
			fmt.Fprintf(os.Stderr, "%s: %s\n", name, strings.Join(values, ", "))
		}
	}
	if cli.ShowStats {
		for key, value := range collector.Snapshot() {
			fmt.Fprintf(os.Stderr, "%s = %d\n", key, value)
		}
	}

	if cli.OutputFile != "" {
		return os.WriteFile(cli.OutputFile, resp.Body, 0600)
	}
	_, err = os.Stdout.Write(resp.Body)
	return err
}
