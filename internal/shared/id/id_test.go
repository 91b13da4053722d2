package id

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{RunPrefix, PreviewPrefix, HistoryPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		assert.True(t, strings.HasPrefix(id, prefix+"_"))
		assert.True(t, HasPrefix(id, prefix))
		assert.True(t, IsValid(id))
	}
}

func TestTypedIDFormat(t *testing.T) {
	ids := map[string]string{
		RunPrefix:     NewRunID().String(),
		PreviewPrefix: NewPreviewID().String(),
		HistoryPrefix: NewHistoryID().String(),
		StreamPrefix:  NewStreamID().String(),
		RequestPrefix: NewRequestID().String(),
		TracePrefix:   NewTraceID().String(),
		SpanPrefix:    NewSpanID().String(),
	}

	for prefix, id := range ids {
		p, u, err := Split(id)
		require.NoError(t, err, id)
		assert.Equal(t, prefix, p)
		assert.Len(t, u.String(), 26)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{NewGenerator().GenerateString(), true},
		{NewRunID().String(), true},
		{"", false},
		{"invalid", false},
		{"run_1234567890", false},
		{"zzzzzzzzzzzzzzzzzzzzzzzzzz", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValid(tt.id), tt.id)
	}
}

func TestTimestamp(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123)
	gen := NewGeneratorWithEntropy(bytes.NewReader(make([]byte, 1024)), func() time.Time { return at })

	ts, err := Timestamp(gen.GenerateWithPrefix(RunPrefix))
	require.NoError(t, err)
	assert.Equal(t, at.UnixMilli(), ts.UnixMilli())

	_, err = Timestamp("run_nope")
	assert.Error(t, err)
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	gen := NewGeneratorWithEntropy(bytes.NewReader(bytes.Repeat([]byte{7}, 4096)), func() time.Time { return at })

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = gen.GenerateString()
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()

	const goroutines = 50
	const perGoroutine = 100

	var wg sync.WaitGroup
	ch := make(chan string, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				ch <- gen.GenerateString()
			}
		}()
	}
	wg.Wait()
	close(ch)

	seen := make(map[string]bool)
	for id := range ch {
		require.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestDefaultGenerator(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func BenchmarkGenerateWithPrefix(b *testing.B) {
	gen := NewGenerator()
	for i := 0; i < b.N; i++ {
		_ = gen.GenerateWithPrefix(RunPrefix)
	}
}
