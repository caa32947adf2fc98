package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/pgianferro/swap-dapp/internal/ledger"
	"github.com/pgianferro/swap-dapp/internal/pool"
)

type provideRequest struct {
	Caller    string `json:"caller"`
	AssetX    string `json:"asset_x"`
	AssetY    string `json:"asset_y"`
	DesiredA  string `json:"desired_a"`
	DesiredB  string `json:"desired_b"`
	MinA      string `json:"min_a"`
	MinB      string `json:"min_b"`
	Recipient string `json:"recipient"`
	Deadline  int64  `json:"deadline"`
}

type provideResponse struct {
	TakenA string `json:"taken_a"`
	TakenB string `json:"taken_b"`
	Minted string `json:"minted"`
}

type withdrawRequest struct {
	Caller    string `json:"caller"`
	AssetX    string `json:"asset_x"`
	AssetY    string `json:"asset_y"`
	Shares    string `json:"shares"`
	MinA      string `json:"min_a"`
	MinB      string `json:"min_b"`
	Recipient string `json:"recipient"`
	Deadline  int64  `json:"deadline"`
}

type withdrawResponse struct {
	OutA string `json:"out_a"`
	OutB string `json:"out_b"`
}

type swapRequest struct {
	Caller       string    `json:"caller"`
	AmountIn     string    `json:"amount_in"`
	AmountOutMin string    `json:"amount_out_min"`
	Path         [2]string `json:"path"`
	Recipient    string    `json:"recipient"`
	Deadline     int64     `json:"deadline"`
}

type swapResponse struct {
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
}

type quoteResponse struct {
	AmountOut string `json:"amount_out"`
}

type priceResponse struct {
	Price string `json:"price"`
	Scale string `json:"scale"`
}

type reservesResponse struct {
	AssetA      string `json:"asset_a"`
	AssetB      string `json:"asset_b"`
	ReserveA    string `json:"reserve_a"`
	ReserveB    string `json:"reserve_b"`
	TotalShares string `json:"total_shares"`
}

type mintRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type approveRequest struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type balancesResponse struct {
	Account  string            `json:"account"`
	Balances map[string]string `json:"balances"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (req provideRequest) toParams() (common.Address, pool.ProvideParams, error) {
	caller, err := parseAddress(req.Caller)
	if err != nil {
		return common.Address{}, pool.ProvideParams{}, err
	}
	assetX, err := parseAddress(req.AssetX)
	if err != nil {
		return common.Address{}, pool.ProvideParams{}, err
	}
	assetY, err := parseAddress(req.AssetY)
	if err != nil {
		return common.Address{}, pool.ProvideParams{}, err
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		return common.Address{}, pool.ProvideParams{}, err
	}
	desiredA, err := parseAmount(req.DesiredA)
	if err != nil {
		return common.Address{}, pool.ProvideParams{}, err
	}
	desiredB, err := parseAmount(req.DesiredB)
	if err != nil {
		return common.Address{}, pool.ProvideParams{}, err
	}
	minA, err := parseAmount(req.MinA)
	if err != nil {
		return common.Address{}, pool.ProvideParams{}, err
	}
	minB, err := parseAmount(req.MinB)
	if err != nil {
		return common.Address{}, pool.ProvideParams{}, err
	}
	return caller, pool.ProvideParams{
		AssetX:    assetX,
		AssetY:    assetY,
		DesiredA:  desiredA,
		DesiredB:  desiredB,
		MinA:      minA,
		MinB:      minB,
		Recipient: recipient,
		Deadline:  deadlineFromUnix(req.Deadline),
	}, nil
}

func (req withdrawRequest) toParams() (common.Address, pool.WithdrawParams, error) {
	caller, err := parseAddress(req.Caller)
	if err != nil {
		return common.Address{}, pool.WithdrawParams{}, err
	}
	assetX, err := parseAddress(req.AssetX)
	if err != nil {
		return common.Address{}, pool.WithdrawParams{}, err
	}
	assetY, err := parseAddress(req.AssetY)
	if err != nil {
		return common.Address{}, pool.WithdrawParams{}, err
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		return common.Address{}, pool.WithdrawParams{}, err
	}
	shares, err := parseAmount(req.Shares)
	if err != nil {
		return common.Address{}, pool.WithdrawParams{}, err
	}
	minA, err := parseAmount(req.MinA)
	if err != nil {
		return common.Address{}, pool.WithdrawParams{}, err
	}
	minB, err := parseAmount(req.MinB)
	if err != nil {
		return common.Address{}, pool.WithdrawParams{}, err
	}
	return caller, pool.WithdrawParams{
		AssetX:    assetX,
		AssetY:    assetY,
		Shares:    shares,
		MinA:      minA,
		MinB:      minB,
		Recipient: recipient,
		Deadline:  deadlineFromUnix(req.Deadline),
	}, nil
}

func (req swapRequest) toParams() (common.Address, pool.SwapParams, error) {
	caller, err := parseAddress(req.Caller)
	if err != nil {
		return common.Address{}, pool.SwapParams{}, err
	}
	path0, err := parseAddress(req.Path[0])
	if err != nil {
		return common.Address{}, pool.SwapParams{}, err
	}
	path1, err := parseAddress(req.Path[1])
	if err != nil {
		return common.Address{}, pool.SwapParams{}, err
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		return common.Address{}, pool.SwapParams{}, err
	}
	amountIn, err := parseAmount(req.AmountIn)
	if err != nil {
		return common.Address{}, pool.SwapParams{}, err
	}
	amountOutMin, err := parseAmount(req.AmountOutMin)
	if err != nil {
		return common.Address{}, pool.SwapParams{}, err
	}
	return caller, pool.SwapParams{
		AmountIn:     amountIn,
		AmountOutMin: amountOutMin,
		Path:         [2]common.Address{path0, path1},
		Recipient:    recipient,
		Deadline:     deadlineFromUnix(req.Deadline),
	}, nil
}

var errBadRequest = errors.New("bad request")

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: invalid address %q", errBadRequest, value)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(value string) (*uint256.Int, error) {
	if value == "" {
		return uint256.NewInt(0), nil
	}
	amount := new(uint256.Int)
	if err := amount.SetFromDecimal(value); err != nil {
		return nil, fmt.Errorf("%w: invalid amount %q", errBadRequest, value)
	}
	return amount, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
}

// statusForError maps engine sentinel errors onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, pool.ErrBadPair),
		errors.Is(err, pool.ErrInvalidPath),
		errors.Is(err, pool.ErrInvalidPair),
		errors.Is(err, pool.ErrZeroAmountIn),
		errors.Is(err, pool.ErrZeroReserves),
		errors.Is(err, pool.ErrNoReserve),
		errors.Is(err, pool.ErrDeadlineExpired):
		return http.StatusBadRequest
	case errors.Is(err, pool.ErrSlippageA),
		errors.Is(err, pool.ErrSlippageB),
		errors.Is(err, pool.ErrSlippageOut),
		errors.Is(err, pool.ErrRatioExceeded),
		errors.Is(err, pool.ErrZeroLiquidity),
		errors.Is(err, pool.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pool.ErrInsufficientShares),
		errors.Is(err, pool.ErrInsufficientReserves),
		errors.Is(err, pool.ErrReentrancy),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientAllowance),
		errors.Is(err, ledger.ErrSupplyOverflow):
		return http.StatusConflict
	case errors.Is(err, pool.ErrTransferFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
