package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pgianferro/swap-dapp/internal/config"
	"github.com/pgianferro/swap-dapp/internal/ledger"
	"github.com/pgianferro/swap-dapp/internal/model"
	"github.com/pgianferro/swap-dapp/internal/pool"
	"github.com/pgianferro/swap-dapp/internal/server"
	"github.com/pgianferro/swap-dapp/internal/stats"
	"github.com/pgianferro/swap-dapp/internal/storage"
	"github.com/pgianferro/swap-dapp/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "swapd",
		Short:        "Constant-product pool service",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pool HTTP service",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("asset-a", "0x0000000000000000000000000000000000000aaa", "asset A address")
	serveCmd.Flags().String("asset-b", "0x0000000000000000000000000000000000000bbb", "asset B address")
	serveCmd.Flags().String("pool-address", "0x0000000000000000000000000000000000000001", "pool account address")
	serveCmd.Flags().String("faucet", "", "account funded with both assets at startup")
	serveCmd.Flags().String("faucet-amount", "0", "amount of each asset minted to the faucet account")
	serveCmd.Flags().String("events-out", "./data/pool_events.jsonl", "event output JSONL path")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN for event/stat persistence")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute an output amount for given reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("amount-in", "", "input amount")
	quoteCmd.Flags().String("reserve-in", "", "input-side reserve")
	quoteCmd.Flags().String("reserve-out", "", "output-side reserve")

	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	assetA, err := parseAddress(cfg.AssetA, "asset-a")
	if err != nil {
		return err
	}
	assetB, err := parseAddress(cfg.AssetB, "asset-b")
	if err != nil {
		return err
	}
	poolAddr, err := parseAddress(cfg.PoolAddress, "pool-address")
	if err != nil {
		return err
	}

	tokenA := ledger.NewToken()
	tokenB := ledger.NewToken()
	shares := ledger.NewToken()

	if cfg.Faucet != "" {
		if err := fundFaucet(tokenA, tokenB, cfg.Faucet, cfg.FaucetAmount); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	accumulator := stats.NewAccumulator(poolAddr.Hex(), assetA.Hex(), assetB.Hex())
	emitters := []pool.Emitter{
		accumulator,
		storage.NewSinkEmitter(storage.NewJsonlStorage(cfg.EventsOut), logger),
	}

	var pgStore *postgres.Store
	if cfg.PgDSN != "" {
		pgStore, err = postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		emitters = append(emitters, storage.NewSinkEmitter(pgStore, logger))
	}

	enginePool, err := pool.New(pool.Config{
		Address: poolAddr,
		AssetA:  assetA,
		AssetB:  assetB,
		TokenA:  tokenA.HandleFor(poolAddr),
		TokenB:  tokenB.HandleFor(poolAddr),
		Shares:  shares.ShareHandle(),
		Emitter: multiEmitter(emitters),
	})
	if err != nil {
		return err
	}

	tokens := map[common.Address]*ledger.Token{
		assetA: tokenA,
		assetB: tokenB,
	}
	api := server.New(enginePool, tokens, accumulator, logger)

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: api.Routes(),
	}

	logger.Info("swapd start",
		zap.String("listen", cfg.Listen),
		zap.String("asset_a", assetA.Hex()),
		zap.String("asset_b", assetB.Hex()),
		zap.String("pool", poolAddr.Hex()),
		zap.String("events_out", cfg.EventsOut),
		zap.Bool("postgres", pgStore != nil),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}

	if pgStore != nil {
		if err := pgStore.UpsertStats(shutdownCtx, accumulator.Snapshot()); err != nil {
			logger.Warn("persist stats", zap.Error(err))
		}
	}

	return nil
}

func runQuote(cmd *cobra.Command, _ []string) error {
	amountIn, err := parseAmountFlag(cmd, "amount-in")
	if err != nil {
		return err
	}
	reserveIn, err := parseAmountFlag(cmd, "reserve-in")
	if err != nil {
		return err
	}
	reserveOut, err := parseAmountFlag(cmd, "reserve-out")
	if err != nil {
		return err
	}

	amountOut, err := pool.GetAmountOut(amountIn, reserveIn, reserveOut)
	if err != nil {
		return err
	}
	fmt.Println(amountOut.Dec())
	return nil
}

func fundFaucet(tokenA, tokenB *ledger.Token, faucet, amount string) error {
	account, err := parseAddress(faucet, "faucet")
	if err != nil {
		return err
	}
	value := new(uint256.Int)
	if err := value.SetFromDecimal(amount); err != nil {
		return fmt.Errorf("faucet-amount: %w", err)
	}
	if value.IsZero() {
		return nil
	}
	if err := tokenA.Mint(account, value); err != nil {
		return err
	}
	return tokenB.Mint(account, value)
}

func parseAddress(value, flag string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", flag, value)
	}
	return common.HexToAddress(value), nil
}

func parseAmountFlag(cmd *cobra.Command, flag string) (*uint256.Int, error) {
	value, _ := cmd.Flags().GetString(flag)
	if value == "" {
		return nil, fmt.Errorf("%s is required", flag)
	}
	amount := new(uint256.Int)
	if err := amount.SetFromDecimal(value); err != nil {
		return nil, fmt.Errorf("%s: invalid amount %q", flag, value)
	}
	return amount, nil
}

// multiEmitter fans one event out to every configured emitter.
type multiEmitter []pool.Emitter

func (m multiEmitter) Emit(record model.EventRecord) {
	for _, emitter := range m {
		emitter.Emit(record)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
