// Package server exposes the pool engine over HTTP. Mutating operations take
// the acting account from the request body; authentication is out of scope.
package server

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pgianferro/swap-dapp/internal/ledger"
	"github.com/pgianferro/swap-dapp/internal/pool"
	"github.com/pgianferro/swap-dapp/internal/stats"
)

// Server wires the pool engine, the in-memory tokens, and the stats
// accumulator into an HTTP API.
type Server struct {
	pool   *pool.Pool
	tokens map[common.Address]*ledger.Token
	stats  *stats.Accumulator
	logger *zap.Logger
}

func New(enginePool *pool.Pool, tokens map[common.Address]*ledger.Token, accumulator *stats.Accumulator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		pool:   enginePool,
		tokens: tokens,
		stats:  accumulator,
		logger: logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/pool", func(r chi.Router) {
		r.Post("/liquidity", s.handleProvide)
		r.Post("/liquidity/remove", s.handleWithdraw)
		r.Post("/swap", s.handleSwap)
		r.Get("/quote", s.handleQuote)
		r.Get("/price", s.handlePrice)
		r.Get("/reserves", s.handleReserves)
		r.Get("/stats", s.handleStats)
	})

	r.Route("/tokens/{asset}", func(r chi.Router) {
		r.Post("/mint", s.handleMint)
		r.Post("/approve", s.handleApprove)
	})

	r.Get("/accounts/{account}/balances", s.handleBalances)

	return r
}

func (s *Server) handleProvide(w http.ResponseWriter, r *http.Request) {
	var req provideRequest
	if !s.decode(w, r, &req) {
		return
	}

	caller, params, err := req.toParams()
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.pool.ProvideLiquidity(r.Context(), caller, params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("liquidity provided",
		zap.String("caller", caller.Hex()),
		zap.String("taken_a", result.TakenA.Dec()),
		zap.String("taken_b", result.TakenB.Dec()),
		zap.String("minted", result.Minted.Dec()),
	)
	s.writeJSON(w, http.StatusOK, provideResponse{
		TakenA: result.TakenA.Dec(),
		TakenB: result.TakenB.Dec(),
		Minted: result.Minted.Dec(),
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !s.decode(w, r, &req) {
		return
	}

	caller, params, err := req.toParams()
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.pool.WithdrawLiquidity(r.Context(), caller, params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("liquidity withdrawn",
		zap.String("caller", caller.Hex()),
		zap.String("out_a", result.OutA.Dec()),
		zap.String("out_b", result.OutB.Dec()),
	)
	s.writeJSON(w, http.StatusOK, withdrawResponse{
		OutA: result.OutA.Dec(),
		OutB: result.OutB.Dec(),
	})
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if !s.decode(w, r, &req) {
		return
	}

	caller, params, err := req.toParams()
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.pool.SwapExact(r.Context(), caller, params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("swap executed",
		zap.String("caller", caller.Hex()),
		zap.String("amount_in", result.AmountIn.Dec()),
		zap.String("amount_out", result.AmountOut.Dec()),
	)
	s.writeJSON(w, http.StatusOK, swapResponse{
		AmountIn:  result.AmountIn.Dec(),
		AmountOut: result.AmountOut.Dec(),
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	amountIn, err := parseAmount(r.URL.Query().Get("amount_in"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	reserveIn, err := parseAmount(r.URL.Query().Get("reserve_in"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	reserveOut, err := parseAmount(r.URL.Query().Get("reserve_out"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	amountOut, err := pool.GetAmountOut(amountIn, reserveIn, reserveOut)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, quoteResponse{AmountOut: amountOut.Dec()})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	assetX, err := parseAddress(r.URL.Query().Get("asset_x"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	assetY, err := parseAddress(r.URL.Query().Get("asset_y"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	price, err := s.pool.GetPrice(assetX, assetY)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, priceResponse{Price: price.Dec(), Scale: pool.PriceScale.Dec()})
}

func (s *Server) handleReserves(w http.ResponseWriter, r *http.Request) {
	reserveA, reserveB := s.pool.Reserves()
	totalShares, err := s.pool.TotalShares(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	assetA, assetB := s.pool.Assets()
	s.writeJSON(w, http.StatusOK, reservesResponse{
		AssetA:      assetA.Hex(),
		AssetB:      assetB.Hex(),
		ReserveA:    reserveA.Dec(),
		ReserveB:    reserveB.Dec(),
		TotalShares: totalShares.Dec(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	if s.stats == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "stats not enabled"})
		return
	}
	s.writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	token, ok := s.lookupToken(w, r)
	if !ok {
		return
	}
	var req mintRequest
	if !s.decode(w, r, &req) {
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := token.Mint(account, amount); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	token, ok := s.lookupToken(w, r)
	if !ok {
		return
	}
	var req approveRequest
	if !s.decode(w, r, &req) {
		return
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	spender, err := parseAddress(req.Spender)
	if err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	token.Approve(owner, spender, amount)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress(chi.URLParam(r, "account"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	balances := make(map[string]string, len(s.tokens))
	for asset, token := range s.tokens {
		balances[asset.Hex()] = token.BalanceOf(account).Dec()
	}
	s.writeJSON(w, http.StatusOK, balancesResponse{Account: account.Hex(), Balances: balances})
}

func (s *Server) lookupToken(w http.ResponseWriter, r *http.Request) (*ledger.Token, bool) {
	asset, err := parseAddress(chi.URLParam(r, "asset"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	token, ok := s.tokens[asset]
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown asset"})
		return nil, false
	}
	return token, true
}

func deadlineFromUnix(seconds int64) time.Time {
	return time.Unix(seconds, 0)
}
