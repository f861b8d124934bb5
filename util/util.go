/*
 * Copyright (C) 2019 ING BANK N.V.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package util

import (
	"math/big"
	"math/bits"

	"github.com/takakv/chainvote/group"
)

/*
Decompose returns the l least significant base-u digits of x, least
significant first, i.e. x = sum(xi.u^i) when x < u^l.
*/
func Decompose(x uint64, u uint64, l int) []uint64 {
	result := make([]uint64, l)
	for i := 0; i < l; i++ {
		result[i] = x % u
		x /= u
	}
	return result
}

// BitLength returns the number of bits needed to index n entries, that is
// ceil(log2(n)). It is 0 for n <= 1.
func BitLength(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// PedersenCommit creates a commitment to secret x using randomness r in group GP.
func PedersenCommit(x, r *big.Int, h group.Element, GP group.Group) group.Element {
	C := GP.Element().BaseScale(x)
	Hr := GP.Element().Scale(h, r)
	C = GP.Element().Add(C, Hr)
	return C
}

// Mod returns x mod n as a new integer.
func Mod(x, n *big.Int) *big.Int {
	return new(big.Int).Mod(x, n)
}

// Wipe overwrites the words backing x with zeroes.
func Wipe(x *big.Int) {
	if x == nil {
		return
	}
	w := x.Bits()
	for i := range w {
		w[i] = 0
	}
	x.SetInt64(0)
}
