// Copyright (c) 2026, The Mandelpool Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflectx

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSub struct {
	Addr  string `default:"localhost:8040"`
	Ranks []int  `default:"1,2,3"`
}

type testConfig struct {
	Name    string        `default:"mandel"`
	Workers int           `default:"4"`
	Scale   float64       `default:"0.5"`
	Verbose bool          `default:"true"`
	Timeout time.Duration `default:"2s"`
	When    time.Time
	Sub     testSub
	hidden  int
	NoDef   string
}

func TestNonPointer(t *testing.T) {
	assert.Equal(t, reflect.TypeFor[int](), NonPointerType(reflect.TypeFor[**int]()))
	assert.Nil(t, NonPointerType(nil))
	v := 3
	p := &v
	assert.Equal(t, 3, NonPointerValue(reflect.ValueOf(&p)).Interface())
}

func TestWalkFields(t *testing.T) {
	var cfg testConfig
	var paths []string
	require.NoError(t, WalkFields(&cfg, func(f *Field) bool {
		paths = append(paths, strings.Join(f.Path, "."))
		return true
	}))
	assert.Equal(t, []string{"Name", "Workers", "Scale", "Verbose", "Timeout", "When", "Sub.Addr", "Sub.Ranks", "NoDef"}, paths)

	n := 0
	require.NoError(t, WalkFields(&cfg, func(f *Field) bool {
		n++
		return n < 2
	}))
	assert.Equal(t, 2, n)

	assert.Error(t, WalkFields(cfg, func(f *Field) bool { return true }))
	assert.Error(t, WalkFields(&n, func(f *Field) bool { return true }))
}

func TestSetFromDefaultTags(t *testing.T) {
	cfg := testConfig{NoDef: "kept", hidden: 7}
	require.NoError(t, SetFromDefaultTags(&cfg))
	assert.Equal(t, testConfig{
		Name: "mandel", Workers: 4, Scale: 0.5, Verbose: true, Timeout: 2 * time.Second,
		Sub: testSub{Addr: "localhost:8040", Ranks: []int{1, 2, 3}}, hidden: 7, NoDef: "kept",
	}, cfg)

	type bad struct {
		N int `default:"many"`
	}
	assert.Error(t, SetFromDefaultTags(&bad{}))
}

func TestSetString(t *testing.T) {
	var cfg testConfig
	v := reflect.ValueOf(&cfg).Elem()
	require.NoError(t, SetString(v.FieldByName("Workers"), "0x10"))
	assert.Equal(t, 16, cfg.Workers)
	require.NoError(t, SetString(v.FieldByName("When"), "2024-01-02T03:04:05Z"))
	assert.Equal(t, 2024, cfg.When.Year())
	require.NoError(t, SetString(v.FieldByName("Sub").FieldByName("Ranks"), ""))
	assert.Nil(t, cfg.Sub.Ranks)

	assert.Error(t, SetString(v.FieldByName("Verbose"), "maybe"))
	assert.Error(t, SetString(reflect.ValueOf(3), "4"))

	assert.Equal(t, "1,2", ToString(reflect.ValueOf([]int{1, 2})))
	assert.Equal(t, "1m30s", ToString(reflect.ValueOf(90*time.Second)))
	assert.Equal(t, "true", ToString(reflect.ValueOf(true)))
}
