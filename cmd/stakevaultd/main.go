package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stakevault/config"
	"stakevault/core/events"
	"stakevault/core/types"
	"stakevault/native/common"
	"stakevault/native/escrow"
	"stakevault/native/payments"
	"stakevault/native/staking"
	"stakevault/observability/logging"
	"stakevault/state"
	"stakevault/storage"
)

const envVar = "STAKEVAULT_ENV"

// logEmitter forwards engine events to the structured log so every state
// change leaves an audit line even without an external subscriber.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	args := []any{slog.String("event", evt.EventType())}
	if rendered, ok := evt.(interface{ Event() *types.Event }); ok {
		for key, value := range rendered.Event().Attributes {
			args = append(args, slog.String(key, value))
		}
	}
	l.logger.Info("ledger event", args...)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVar))
	logger := logging.Setup("stakevaultd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	admin, err := cfg.AdminAddress()
	if err != nil {
		logger.Error("Failed to parse admin address", slog.Any("error", err))
		os.Exit(1)
	}
	minStake, err := cfg.MinStakeAmount()
	if err != nil {
		logger.Error("Failed to parse minimum stake", slog.Any("error", err))
		os.Exit(1)
	}

	store := state.NewStore(db)
	auth := common.NewStaticAuthorizer(admin)
	emitter := logEmitter{logger: logger}

	stakingEngine := staking.NewEngine()
	stakingEngine.SetState(store)
	stakingEngine.SetAuthorizer(auth)
	stakingEngine.SetEmitter(emitter)

	escrowEngine := escrow.NewEngine()
	escrowEngine.SetState(store)
	escrowEngine.SetAuthorizer(auth)
	escrowEngine.SetEmitter(emitter)

	paymentsEngine := payments.NewEngine()
	paymentsEngine.SetState(store)
	paymentsEngine.SetAuthorizer(auth)
	paymentsEngine.SetEmitter(emitter)

	// First boot writes the ledger configuration; later boots verify it.
	if _, ok, err := store.ConfigGet(); err != nil {
		logger.Error("Failed to read ledger config", slog.Any("error", err))
		os.Exit(1)
	} else if !ok {
		if err := stakingEngine.Initialize(admin, cfg.Token, cfg.RewardRateBps, minStake); err != nil {
			logger.Error("Failed to initialize ledger", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Ledger initialized",
			slog.String("token", cfg.Token),
			slog.Uint64("rewardRateBps", cfg.RewardRateBps),
			slog.String("minStake", minStake.String()))
	} else {
		ledgerCfg, err := stakingEngine.GetConfig()
		if err != nil {
			logger.Error("Failed to load ledger config", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Ledger resumed",
			slog.String("token", ledgerCfg.Token),
			slog.Uint64("rewardRateBps", ledgerCfg.RewardRateBps))
	}

	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info("Metrics listener starting", slog.String("address", cfg.MetricsAddress))
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("Metrics listener stopped", slog.Any("error", err))
			}
		}()
	}

	logger.Info("Daemon running", slog.String("dataDir", cfg.DataDir))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")
}
