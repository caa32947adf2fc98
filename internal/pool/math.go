package pool

import "github.com/holiman/uint256"

// PriceScale is the fixed-point factor applied by GetPrice: prices are
// expressed as units of B per unit of A multiplied by 10^18.
var PriceScale = uint256.MustFromDecimal("1000000000000000000")

// GetAmountOut applies the constant-product formula without fees:
//
//	amountOut = amountIn * reserveOut / (reserveIn + amountIn)
//
// using floor division. It is the single pricing function; the swap operation
// calls it rather than re-deriving the formula.
func GetAmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, ErrZeroAmountIn
	}
	if reserveIn == nil || reserveIn.IsZero() || reserveOut == nil || reserveOut.IsZero() {
		return nil, ErrZeroReserves
	}

	numerator, overflow := new(uint256.Int).MulOverflow(amountIn, reserveOut)
	if overflow {
		return nil, ErrOverflow
	}
	denominator, overflow := new(uint256.Int).AddOverflow(reserveIn, amountIn)
	if overflow {
		return nil, ErrOverflow
	}
	return numerator.Div(numerator, denominator), nil
}

// mulDiv computes floor(x*y/d) with overflow detection on the product.
func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrZeroReserves
	}
	p, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return p.Div(p, d), nil
}

// sqrtProduct computes floor(sqrt(x*y)), the bootstrap share formula.
func sqrtProduct(x, y *uint256.Int) (*uint256.Int, error) {
	p, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return p.Sqrt(p), nil
}

func checkedAdd(x, y *uint256.Int) (*uint256.Int, error) {
	s, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return s, nil
}

func minInt(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return x
	}
	return y
}
