package util

import (
	"fmt"
	"math/big"
)

// LagrangeAtZero computes the Lagrange coefficients at x = 0 for the given
// distinct non-zero abscissae modulo mod.
func LagrangeAtZero(xs []uint32, mod *big.Int) (map[uint32]*big.Int, error) {
	return LagrangeAt(0, xs, mod)
}

// LagrangeAt computes the Lagrange basis polynomials for the abscissae xs
// evaluated at x, modulo mod.
func LagrangeAt(x uint32, xs []uint32, mod *big.Int) (map[uint32]*big.Int, error) {
	coeffs := make(map[uint32]*big.Int, len(xs))
	bx := new(big.Int).SetUint64(uint64(x))
	for _, i := range xs {
		numerator := big.NewInt(1)
		denominator := big.NewInt(1)
		bi := new(big.Int).SetUint64(uint64(i))
		for _, j := range xs {
			if i == j {
				continue
			}
			bj := new(big.Int).SetUint64(uint64(j))

			// numerator *= (x - j)
			tmp := new(big.Int).Sub(bx, bj)
			numerator.Mul(numerator, tmp.Mod(tmp, mod))
			numerator.Mod(numerator, mod)

			// denominator *= (i - j)
			tmp = new(big.Int).Sub(bi, bj)
			denominator.Mul(denominator, tmp.Mod(tmp, mod))
			denominator.Mod(denominator, mod)
		}
		denominatorInv := new(big.Int).ModInverse(denominator, mod)
		if denominatorInv == nil {
			return nil, fmt.Errorf("modular inverse does not exist for denominator %s", denominator.String())
		}
		coeff := numerator.Mul(numerator, denominatorInv)
		coeffs[i] = coeff.Mod(coeff, mod)
	}
	return coeffs, nil
}
