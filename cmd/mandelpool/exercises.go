// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"time"

	"github.com/parlab/mandelpool/base/fsx"
	"github.com/parlab/mandelpool/base/mpi"
	"github.com/parlab/mandelpool/base/randx"
	"github.com/parlab/mandelpool/exercises"
	"golang.org/x/sync/errgroup"
)

// ExerciseConfig configures the exercise commands.
type ExerciseConfig struct {

	// Ranks is the number of ranks of the in-process world.
	Ranks int `default:"4" flag:"ranks" desc:"number of ranks for the message passing exercises"`

	// N is the number of values sent by cyclic and doubled by vec-double.
	N int `default:"100000" flag:"n" desc:"number of values for cyclic and vec-double"`

	// Staggered orders the cyclic exchange so that it cannot deadlock.
	Staggered bool `flag:"staggered" desc:"alternate sending and receiving in cyclic"`

	// Timing configures tcomm.
	Timing exercises.TCommConfig

	// Text is the file histogram counts; a built in text if empty.
	Text string `flag:"text" desc:"text file to count the letters of"`

	// SetSize is the capacity of the set.
	SetSize int `default:"1000" desc:"capacity of the set"`

	// Threads is the number of goroutines of the shared memory exercises.
	Threads int `default:"4" flag:"threads" desc:"goroutines for set and weights"`

	// Nodes and Inputs are the dimensions of the weight matrix.
	Nodes  int `default:"1000" desc:"output nodes of the weight matrix"`
	Inputs int `default:"500" desc:"inputs of the weight matrix"`

	// Seed seeds the random values; 0 seeds set from the time.
	Seed int64 `default:"1" flag:"seed" desc:"random seed, or 0 to seed set from the time"`
}

// Cyclic exchanges values around a ring of ranks. Unstaggered, it
// deadlocks once the messages are too large to be buffered, which is
// reported when the timeout expires.
func Cyclic(c *Config) error {
	ec := c.Exercise
	if ec.N < 1 {
		return fmt.Errorf("%w: n must be positive, not %d", exercises.ErrSize, ec.N)
	}
	return c.exerciseWorld(func(ctx context.Context, cm *mpi.Comm) error {
		ctx, cancel := context.WithTimeout(ctx, c.Timeout)
		defer cancel()
		recv, err := exercises.Cyclic(ctx, cm, ec.N, ec.Staggered)
		if err != nil {
			return err
		}
		cm.AllPrintf("received %d values, first %d last %d\n", len(recv), recv[0], recv[len(recv)-1])
		return nil
	})
}

// TComm times messages from the first to the last rank.
func TComm(c *Config) error {
	return c.exerciseWorld(func(ctx context.Context, cm *mpi.Comm) error {
		res, err := exercises.TComm(ctx, cm, c.Exercise.Timing)
		if err != nil || !cm.IsRoot() {
			return err
		}
		cm.Printf("startup %v, per value %v, r^2 %.4f\n", res.Startup, res.PerElem, res.RSquared)
		return nil
	})
}

// Tree sums the ranks up a binary tree.
func Tree(c *Config) error {
	return c.exerciseWorld(func(ctx context.Context, cm *mpi.Comm) error {
		sum, err := exercises.Tree(ctx, cm)
		if err != nil {
			return err
		}
		size := cm.Size()
		cm.Printf("sum %d, expected %d\n", sum, size*(size-1)/2)
		return nil
	})
}

// VecDouble doubles a vector split among the ranks.
func VecDouble(c *Config) error {
	n := c.Exercise.N
	return c.exerciseWorld(func(ctx context.Context, cm *mpi.Comm) error {
		var a []float32
		if cm.IsRoot() {
			a = make([]float32, n)
			for i := range a {
				a[i] = float32(i)
			}
		}
		b, err := exercises.VecDouble(ctx, cm, n, a)
		if err != nil || !cm.IsRoot() {
			return err
		}
		for i := range b {
			if b[i] != 2*a[i] {
				return fmt.Errorf("value %d is %g, expected %g", i, b[i], 2*a[i])
			}
		}
		cm.Printf("doubled %d values\n", n)
		return nil
	})
}

const pangram = "The quick brown fox jumps over the lazy dog."

// Histogram counts the letters of a text in parallel.
func Histogram(c *Config) error {
	text := []byte(pangram)
	if c.Exercise.Text != "" {
		fn, err := fsx.ExpandHome(c.Exercise.Text)
		if err != nil {
			return err
		}
		text, err = os.ReadFile(fn)
		if err != nil {
			return err
		}
	}
	return c.exerciseWorld(func(ctx context.Context, cm *mpi.Comm) error {
		hist, err := exercises.Histogram(ctx, cm, text)
		if err != nil || !cm.IsRoot() {
			return err
		}
		if !slices.Equal(hist, exercises.SerialHistogram(text)) {
			return fmt.Errorf("parallel histogram differs from the serial count")
		}
		for i, n := range hist {
			cm.Printf("%c %d\n", 'a'+i, n)
		}
		return nil
	})
}

// Set fills a concurrent set with random values from several
// goroutines, removes a tenth of them, and sorts it.
func Set(c *Config) error {
	ec := c.Exercise
	if ec.SetSize < 1 || ec.Threads < 1 {
		return fmt.Errorf("%w: set size %d and threads %d must be positive", exercises.ErrSize, ec.SetSize, ec.Threads)
	}
	set := exercises.NewSet(ec.SetSize, ec.Threads)
	var seeds randx.Seeds
	seeds.Init(ec.Threads, ec.Seed)
	if ec.Seed == 0 {
		seeds.NewSeeds()
	}
	start := time.Now()
	var g errgroup.Group
	for t := range ec.Threads {
		rnd := seeds.Rand(t)
		g.Go(func() error {
			for set.Len() < ec.SetSize {
				set.Add(rnd.Intn(10 * ec.SetSize))
			}
			return nil
		})
	}
	g.Wait()
	slog.Info("filled set", "size", set.Len(), "elapsed", time.Since(start))

	vals := set.Values()
	rm := randx.NewSysRand(ec.Seed).Perm(len(vals))[:len(vals)/10]
	for _, i := range rm {
		if !set.Remove(vals[i]) {
			return fmt.Errorf("value %d was not removed", vals[i])
		}
	}
	start = time.Now()
	set.Sort()
	slog.Info("sorted set", "removed", len(rm), "size", set.Len(), "elapsed", time.Since(start))
	vals = set.Values()
	if !slices.IsSorted(vals) {
		return fmt.Errorf("set is not sorted")
	}
	fmt.Println(vals[:min(10, len(vals))])
	return nil
}

// Weights updates a weight matrix in parallel and checks it
// against the serial update.
func Weights(c *Config) error {
	ec := c.Exercise
	var rnd randx.Rand = randx.NewSysRand(ec.Seed)
	fill := func(n int) []float32 {
		v := make([]float32, n)
		for i := range v {
			v[i] = rnd.Float32()*2 - 1
		}
		return v
	}
	g, x, w := fill(ec.Nodes), fill(ec.Inputs), fill(ec.Nodes*ec.Inputs)
	want := slices.Clone(w)
	for i := range g {
		for j := range x {
			want[i*len(x)+j] += g[i] * x[j]
		}
	}
	start := time.Now()
	if err := exercises.UpdateWeights(g, x, w, ec.Threads); err != nil {
		return err
	}
	elapsed := time.Since(start)
	var diff float64
	for i := range w {
		diff = max(diff, math.Abs(float64(w[i]-want[i])))
	}
	slog.Info("updated weights", "nodes", ec.Nodes, "inputs", ec.Inputs, "threads", ec.Threads, "elapsed", elapsed, "max_diff", diff)
	if diff > 1e-5 {
		return fmt.Errorf("parallel update differs from the serial update by %g", diff)
	}
	return nil
}
