package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jamesainslie/primesieve/pkg/primesieve/config"
	"github.com/jamesainslie/primesieve/pkg/primesieve/logging"
	"github.com/jamesainslie/primesieve/pkg/primesieve/manifest"
	"github.com/jamesainslie/primesieve/pkg/primesieve/output"
	"github.com/jamesainslie/primesieve/pkg/primesieve/sieve"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRotationConfig(t *testing.T) {
	def := logging.DefaultRotationConfig().MaxSize

	tests := []struct {
		name    string
		maxSize string
		want    int64
	}{
		{"empty uses default", "", def},
		{"megabytes", "5MB", 5_000_000},
		{"mebibytes", "2MiB", 2 * 1024 * 1024},
		{"invalid uses default", "lots", def},
		{"zero uses default", "0", def},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRotationConfig(config.RotationConfig{MaxSize: tt.maxSize, MaxAge: 7, MaxBackups: 2})
			assert.Equal(t, tt.want, got.MaxSize)
			assert.Equal(t, 7, got.MaxAge)
			assert.Equal(t, 2, got.MaxBackups)
		})
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		hint string
	}{
		{fmt.Errorf("%w: K=30", sieve.ErrTooFewPrimes), "lower --top"},
		{fmt.Errorf("%w: requested 26, found 25 up to 100", sieve.ErrTooFewPrimes), "rechecked against the exact count"},
		{fmt.Errorf("%w: remainder 2", sieve.ErrCoverageGap), "--partition remainder"},
		{fmt.Errorf("%w: 1 GiB", sieve.ErrResourceExhaustion), "memory.check"},
	}
	for _, tt := range tests {
		assert.Contains(t, describeError(tt.err), tt.hint)
		assert.Contains(t, describeError(tt.err), tt.err.Error())
	}

	plain := errors.New("boom")
	assert.Equal(t, "boom", describeError(plain))
}

func TestFormatterFor(t *testing.T) {
	cfg := &config.Config{Output: config.OutputConfig{Format: "record"}}
	f, err := formatterFor(cfg)
	require.NoError(t, err)
	assert.NotNil(t, f)

	cfg.Output = config.OutputConfig{Format: "template", Template: "{{.Count}}"}
	f, err = formatterFor(cfg)
	require.NoError(t, err)
	assert.IsType(t, &output.TemplateFormatter{}, f)

	cfg.Output = config.OutputConfig{Format: "csv"}
	_, err = formatterFor(cfg)
	assert.Error(t, err)
}

func TestVerify_Agrees(t *testing.T) {
	report, err := verify(context.Background(), sieve.Options{
		Limit: 10_000, Workers: 3, TopK: 5, Policy: sieve.PolicyRemainderLast,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1229), report.parallel.Count)
	assert.Equal(t, report.reference.Largest, report.parallel.Largest)
	assert.Empty(t, report.mismatches())
}

func TestVerify_GapIsMismatch(t *testing.T) {
	report, err := verify(context.Background(), sieve.Options{
		Limit: 100, Workers: 4, Policy: sieve.PolicyEqual,
	})
	require.ErrorIs(t, err, errVerifyMismatch)
	require.NotNil(t, report)
	assert.Contains(t, err.Error(), "[99, 100]")
}

func TestVerify_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := verify(ctx, sieve.Options{Limit: 1000, Workers: 2, Policy: sieve.PolicyRemainderLast})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyReport_Mismatches(t *testing.T) {
	ref, err := sieve.ReferenceSummary(30, 2)
	require.NoError(t, err)

	r := verifyReport{
		parallel:  &types.Result{Count: 10, Sum: "129", Largest: []int{23, 29}},
		reference: ref,
	}
	assert.Empty(t, r.mismatches())

	r.parallel = &types.Result{Count: 11, Sum: "130", Largest: []int{23, 29}}
	diffs := r.mismatches()
	require.Len(t, diffs, 2)
	assert.Contains(t, diffs[0], "count")
	assert.Contains(t, diffs[1], "sum")
}

func TestEnvOverrides(t *testing.T) {
	got := envOverrides([]string{"HOME=/root", "PRIMESIEVE_LIMIT=1e6", "PATH=/bin", "PRIMESIEVE_TOP_K=3"})
	assert.Equal(t, []string{"PRIMESIEVE_LIMIT=1e6", "PRIMESIEVE_TOP_K=3"}, got)
	assert.Empty(t, envOverrides(nil))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0f8fad5b", shortID("0f8fad5b-d9cb-469f-a165-70867728950e"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestEntryStatus(t *testing.T) {
	ts := time.Now()
	tests := []struct {
		entry manifest.Entry
		want  string
	}{
		{manifest.Entry{Timestamp: ts}, "ok"},
		{manifest.Entry{Timestamp: ts, Error: "boom"}, "failed"},
		{manifest.Entry{Timestamp: ts, Summary: manifest.Summary{Cached: true}}, "cached"},
		{manifest.Entry{Timestamp: ts, Summary: manifest.Summary{Gap: "[99, 100]"}}, "gap"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, entryStatus(&tt.entry))
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(fmt.Errorf("%w: W=0", sieve.ErrInvalidConfig)))
	assert.Equal(t, 2, exitCode(fmt.Errorf("%w: K=30", sieve.ErrTooFewPrimes)))
	assert.Equal(t, 1, exitCode(fmt.Errorf("%w: 1 GiB", sieve.ErrResourceExhaustion)))
	assert.Equal(t, 1, exitCode(context.Canceled))
}
