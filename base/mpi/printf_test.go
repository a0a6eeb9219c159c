// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpi

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintf(t *testing.T) {
	var buf bytes.Buffer
	Stdout = &buf
	defer func() { Stdout = os.Stdout }()

	w := NewWorld(2)
	defer w.Close()
	c0, c1 := NewComm(w.Endpoint(0)), NewComm(w.Endpoint(1))

	c0.Printf("row %d\n", 1)
	c1.Printf("row %d\n", 2)
	assert.Equal(t, "row 1\n", buf.String())

	buf.Reset()
	c1.PrintAllProcs = true
	c1.Println("row", 3)
	assert.Equal(t, "P1: row 3\n", buf.String())
}
