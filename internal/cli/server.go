package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/0xHustling/ERC721-Drops/internal/config"
	"github.com/0xHustling/ERC721-Drops/internal/core/drop"
	"github.com/0xHustling/ERC721-Drops/internal/core/funds"
	"github.com/0xHustling/ERC721-Drops/internal/core/roles"
	"github.com/0xHustling/ERC721-Drops/internal/core/token"
	"github.com/0xHustling/ERC721-Drops/internal/rpc"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database/leveldb"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database/memory"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database/pebble"
	"github.com/0xHustling/ERC721-Drops/internal/storage/eventlog"
)

// serverCmd starts the drop daemon. This is the default action when no
// subcommand is given.
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the drop daemon",
	Long: `Start dropd, which provides:
- HTTP JSON-RPC endpoints for every drop operation
- WebSocket subscriptions for sale, funds and config events
- A persistent event journal
- A health check endpoint`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.RunE = serverCmd.RunE

	serverCmd.Flags().IntP("port", "p", 0, "override the configured listen port")
	serverCmd.Flags().String("bind", "", "override the configured bind address")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
		cfg.Server.Host = bind
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	journal, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	tokens, err := token.Open(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to open token ledger: %w", err)
	}

	params, err := cfg.EngineParams()
	if err != nil {
		return err
	}

	manager := rpc.NewSubscriptionManager()
	sinks := []drop.EventSink{rpc.NewPublisher(manager)}
	if journal != nil {
		sinks = append(sinks, eventlog.NewSink(journal))
	}

	engine, err := drop.New(ctx, params, drop.Dependencies{
		Tokens: tokens,
		Roles:  roles.NewMemoryRegistry(),
		Bank:   funds.NewMemoryBank(),
		Clock:  drop.SystemClock(),
		DB:     db,
		Sinks:  sinks,
	})
	if err != nil {
		return fmt.Errorf("failed to construct drop engine: %w", err)
	}

	service := rpc.NewService(engine, journal)
	timeout := time.Duration(cfg.Server.RequestTimeout) * time.Second
	httpServer := rpc.NewServer(service, timeout)

	mux := http.NewServeMux()
	mux.Handle("/", httpServer)
	mux.Handle("/rpc", httpServer)
	if cfg.Server.WebsocketEnabled {
		mux.Handle("/ws", rpc.NewWebSocketServer(httpServer.Registry(), manager))
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"dropd"}`))
	})

	listenAddr := cfg.ListenAddr()
	srv := &http.Server{Addr: listenAddr, Handler: mux}

	if !quiet {
		details := engine.SaleDetails()
		fmt.Printf("dropd - %s (%s)\n", engine.Name(), engine.Symbol())
		fmt.Printf("  minted: %d", details.TotalMinted)
		if details.Open {
			fmt.Printf(" (open edition)\n")
		} else {
			fmt.Printf(" / %d\n", details.MaxSupply)
		}
		fmt.Printf("  HTTP JSON-RPC: http://%s/\n", listenAddr)
		if cfg.Server.WebsocketEnabled {
			fmt.Printf("  WebSocket:     ws://%s/ws\n", listenAddr)
		}
		fmt.Printf("  Health check:  http://%s/health\n", listenAddr)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Println("dropd stopped")
	return nil
}

func openDatabase(cfg *config.Config) (database.DB, func(), error) {
	switch cfg.Database.Backend {
	case "pebble":
		db, err := pebble.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open pebble database: %w", err)
		}
		return db, func() { db.Close() }, nil
	case "leveldb":
		db, err := leveldb.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open leveldb database: %w", err)
		}
		return db, func() { db.Close() }, nil
	case "memory":
		return memory.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}
}

func openJournal(ctx context.Context, cfg *config.Config) (eventlog.Journal, error) {
	switch cfg.Journal.Backend {
	case "sqlite":
		return eventlog.OpenSQLite(ctx, cfg.Journal.Path)
	case "postgres":
		return eventlog.OpenPostgres(ctx, cfg.Journal.DSN)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Journal.Backend)
	}
}
