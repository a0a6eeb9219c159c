// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exercises

import (
	"context"
	"fmt"
	"time"

	"github.com/parlab/mandelpool/base/mpi"
	"gonum.org/v1/gonum/stat"
)

// TCommConfig are the parameters of [TComm].
type TCommConfig struct {

	// MinSize is the first message size, in float64 values.
	MinSize int `default:"100" desc:"first message size, in float64 values"`

	// MaxSize bounds the message sizes, which double from MinSize while below it.
	MaxSize int `default:"30000" desc:"message sizes double while below this"`

	// Samples is the number of messages timed per size.
	Samples int `default:"1000" desc:"number of messages timed per size"`
}

// TCommResult are the timings of [TComm], and the least squares fit
// of the communication time t = Startup + PerElem * size.
type TCommResult struct {
	Sizes   []int           `yaml:"sizes"`
	Times   []time.Duration `yaml:"times"`
	Startup time.Duration   `yaml:"startup"`
	PerElem time.Duration   `yaml:"per_elem"`

	// RSquared is the coefficient of determination of the fit.
	RSquared float64 `yaml:"r_squared"`
}

// TComm times messages from rank 0 to the last rank, with a barrier
// after each message so that they do not overlap. The result is only
// filled in on rank 0.
func TComm(ctx context.Context, cm *mpi.Comm, cfg TCommConfig) (TCommResult, error) {
	var res TCommResult
	size, rank := cm.Size(), cm.Rank()
	if size < 2 {
		return res, fmt.Errorf("%w: timing needs at least 2 ranks, not %d", ErrSize, size)
	}
	if cfg.MinSize < 1 || cfg.Samples < 1 {
		return res, fmt.Errorf("%w: min size %d and samples %d must be positive", ErrSize, cfg.MinSize, cfg.Samples)
	}
	last := size - 1
	for m := cfg.MinSize; m < cfg.MaxSize; m *= 2 {
		data := make([]float64, m)
		if rank == mpi.Root {
			for i := range data {
				data[i] = float64(i)
			}
		}
		start := time.Now()
		for range cfg.Samples {
			switch rank {
			case mpi.Root:
				if err := cm.SendF64(ctx, last, 0, data); err != nil {
					return res, err
				}
			case last:
				if _, err := cm.RecvF64(ctx, mpi.Root, 0, data); err != nil {
					return res, err
				}
			}
			if err := cm.Barrier(ctx); err != nil {
				return res, err
			}
		}
		t := time.Since(start) / time.Duration(cfg.Samples)
		res.Sizes = append(res.Sizes, m)
		res.Times = append(res.Times, t)
		cm.Printf("%d\t%g\n", m, t.Seconds())
	}
	if rank != mpi.Root || len(res.Sizes) < 2 {
		return res, nil
	}
	xs := make([]float64, len(res.Sizes))
	ys := make([]float64, len(res.Sizes))
	for i := range xs {
		xs[i] = float64(res.Sizes[i])
		ys[i] = res.Times[i].Seconds()
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	res.Startup = seconds(alpha)
	res.PerElem = seconds(beta)
	res.RSquared = stat.RSquared(xs, ys, nil, alpha, beta)
	return res, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
