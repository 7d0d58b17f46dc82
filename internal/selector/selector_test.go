package selector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	pool, err := NewPool()
	require.NoError(t, err)

	tests := []struct {
		expr  string
		step  int
		group int
		want  bool
	}{
		{"step >= 1000", 999, 1, false},
		{"step >= 1000", 1000, 1, true},
		{"step % 10 == 0", 120, 3, true},
		{"step % 10 == 0", 121, 3, false},
		{"group == 2", 5, 2, true},
		{"group != 2 && step < 50", 10, 1, true},
		{"between(step, 500, 900)", 500, 1, true},
		{"between(step, 500, 900)", 900, 1, true},
		{"between(step, 500, 900)", 901, 1, false},
		{"group in [1, 3]", 0, 3, true},
		{"true", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := pool.Match(tt.expr, tt.step, tt.group)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "step=%d group=%d", tt.step, tt.group)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	pool, err := NewPool()
	require.NoError(t, err)

	for _, expr := range []string{
		"step >",
		"unknown_var == 1",
		"step + 1",
		`"text"`,
		"between(step, 1)",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := pool.Compile(expr)
			assert.Error(t, err)

			_, err = pool.Match(expr, 1, 1)
			assert.Error(t, err)
		})
	}
}

func TestRuntimeError(t *testing.T) {
	pool, err := NewPool()
	require.NoError(t, err)

	_, err = pool.Match("step / group > 1", 10, 0)
	assert.Error(t, err)
}

func TestCompileCaches(t *testing.T) {
	pool, err := NewPool()
	require.NoError(t, err)

	first, err := pool.Compile("step > 3")
	require.NoError(t, err)
	second, err := pool.Compile("step > 3")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, pool.programs, 1)
}

func TestPredicateConcurrent(t *testing.T) {
	pool, err := NewPool()
	require.NoError(t, err)

	match, err := pool.Predicate("step % 2 == 0")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]bool, 64)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := match(i, 1)
			assert.NoError(t, err)
			results[i] = ok
		}()
	}
	wg.Wait()

	for i, ok := range results {
		assert.Equal(t, i%2 == 0, ok, "step %d", i)
	}

	_, err = pool.Predicate("step +")
	assert.Error(t, err)
}
