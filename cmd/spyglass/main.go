// Command spyglass is an interactive console for the global search client.
// Each input line runs as a query; with -type the line is replayed
// keystroke by keystroke through the debounce path instead.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	spyglass "github.com/pelorus-marine/spyglass"
	"github.com/pelorus-marine/spyglass/internal/config"
	logpkg "github.com/pelorus-marine/spyglass/internal/logger"
	"github.com/pelorus-marine/spyglass/internal/version"
)

func main() {
	simulateTyping := flag.Bool("type", false, "replay input keystroke by keystroke")
	flag.Parse()

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting spyglass console",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("base_url", cfg.Search.BaseURL),
	)

	searcher, err := buildSearcher(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create searcher", zap.Error(err))
	}
	defer searcher.Close()

	fmt.Println("spyglass console. Commands: :recent :refetch :clear :quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case ":quit":
			return
		case ":clear":
			searcher.Clear()
			continue
		case ":refetch":
			searcher.Refetch()
			waitAndPrint(searcher)
			continue
		case ":recent":
			for _, q := range searcher.RecentQueries(context.Background()) {
				fmt.Println("  " + q)
			}
			continue
		case "":
			continue
		}

		if *simulateTyping {
			for i := range line {
				searcher.OnQueryChange(line[:i+1])
				time.Sleep(40 * time.Millisecond)
			}
		} else {
			searcher.Submit(line)
		}
		waitAndPrint(searcher)
	}
}

func buildSearcher(cfg config.Config, logger *zap.Logger) (*spyglass.Searcher, error) {
	opts := []spyglass.Option{
		spyglass.WithLogger(logger),
		spyglass.WithYacht(cfg.Search.YachtID, cfg.Search.YachtSignature),
		spyglass.WithFallback(
			cfg.Search.FallbackLimit,
			time.Duration(cfg.Search.FallbackTimeoutSec)*time.Second,
		),
		spyglass.WithTokenTimeout(time.Duration(cfg.Search.TokenTimeoutSec) * time.Second),
		spyglass.WithCacheTTL(time.Duration(cfg.Search.CacheTTLSec) * time.Second),
	}
	switch cfg.Storage.Driver {
	case "memory":
		opts = append(opts, spyglass.WithMemoryStore())
	case "file":
		opts = append(opts, spyglass.WithFileStore(cfg.Storage.Dir))
	case "redis":
		opts = append(opts, spyglass.WithRedis(cfg.Storage.Addrs, cfg.Storage.Password))
	}
	return spyglass.New(cfg.Search.BaseURL, opts...)
}

// waitAndPrint polls until the orchestrator settles, then renders the
// result set. Good enough for a console; real consumers use WithOnState.
func waitAndPrint(searcher *spyglass.Searcher) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		st := searcher.State()
		if st.Phase == spyglass.PhaseIdle {
			printState(st)
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	fmt.Println("  (timed out waiting for results)")
}

func printState(st spyglass.State) {
	if st.Err != "" {
		fmt.Println("  ! " + st.Err)
	}
	for _, s := range st.Suggestions {
		fmt.Printf("  * %s\n", s.Label)
	}
	if len(st.Results) == 0 {
		fmt.Println("  no results")
		return
	}
	for _, r := range st.Results {
		fmt.Printf("  %-12s %.3f  %s", r.Type, r.Score, r.Title)
		if r.Subtitle != "" {
			fmt.Printf("  (%s)", r.Subtitle)
		}
		fmt.Println()
	}
}
