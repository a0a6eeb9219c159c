// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpi

import "fmt"

// Op is an aggregation operation: Sum, Min, Max, etc
type Op int

const (
	OpSum Op = iota
	OpMax
	OpMin
	OpProd
	OpLAND // logical AND
	OpLOR  // logical OR
	OpBAND // bitwise AND
	OpBOR  // bitwise OR
)

var opNames = [...]string{"Sum", "Max", "Min", "Prod", "LAND", "LOR", "BAND", "BOR"}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opNames[op]
}

func isFloat[T Number]() bool {
	x := T(1)
	x /= 2
	return x != 0
}

func boolNum[T Number](b bool) T {
	if b {
		return 1
	}
	return 0
}

// Combine applies op to a and b elementwise, storing the result in a.
// The bitwise operations are only defined on integer types.
func Combine[T Number](op Op, a, b []T) error {
	if len(a) != len(b) {
		return fmt.Errorf("mpi.Combine: length mismatch %d != %d", len(a), len(b))
	}
	if (op == OpBAND || op == OpBOR) && isFloat[T]() {
		return fmt.Errorf("mpi.Combine: %v is not defined on floating point values", op)
	}
	for i, y := range b {
		x := a[i]
		switch op {
		case OpSum:
			a[i] = x + y
		case OpMax:
			a[i] = max(x, y)
		case OpMin:
			a[i] = min(x, y)
		case OpProd:
			a[i] = x * y
		case OpLAND:
			a[i] = boolNum[T](x != 0 && y != 0)
		case OpLOR:
			a[i] = boolNum[T](x != 0 || y != 0)
		case OpBAND:
			a[i] = T(int64(x) & int64(y))
		case OpBOR:
			a[i] = T(int64(x) | int64(y))
		default:
			return fmt.Errorf("mpi.Combine: unknown %v", op)
		}
	}
	return nil
}
