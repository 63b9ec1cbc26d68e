package couponsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureRandomGenerator(t *testing.T) {
	gen := NewSecureRandomGenerator(100)

	t.Run("浮点生成正确性", func(t *testing.T) {
		for range 1000 {
			result, err := gen.GenerateFloat()
			require.NoError(t, err)
			require.GreaterOrEqual(t, result, 0.0)
			require.Less(t, result, 1.0)
		}
	})

	t.Run("缓存重填充", func(t *testing.T) {
		// 消耗超过缓存大小的数量
		for range 250 {
			v := gen.Float64()
			require.GreaterOrEqual(t, v, 0.0)
			require.Less(t, v, 1.0)
		}
	})

	t.Run("默认缓存大小", func(t *testing.T) {
		assert.Equal(t, DefaultFastRandomGeneratorCacheSize, NewSecureRandomGenerator().cacheSize)
		assert.Equal(t, DefaultFastRandomGeneratorCacheSize, NewSecureRandomGenerator(0).cacheSize)
	})
}

func TestSeededStreams(t *testing.T) {
	streams := SeededStreams{Seed: 2024}

	t.Run("same_trial_same_stream", func(t *testing.T) {
		a, b := streams.Stream(17), streams.Stream(17)
		for range 100 {
			assert.Equal(t, a.Float64(), b.Float64())
		}
	})

	t.Run("different_trials_differ", func(t *testing.T) {
		a, b := streams.Stream(1), streams.Stream(2)
		assert.NotEqual(t, a.Float64(), b.Float64())
	})

	t.Run("different_seeds_differ", func(t *testing.T) {
		a := SeededStreams{Seed: 1}.Stream(0)
		b := SeededStreams{Seed: 2}.Stream(0)
		assert.NotEqual(t, a.Float64(), b.Float64())
	})

	t.Run("uniform_range", func(t *testing.T) {
		rng := streams.Stream(3)
		var sum float64
		for range 10000 {
			v := rng.Float64()
			require.GreaterOrEqual(t, v, 0.0)
			require.Less(t, v, 1.0)
			sum += v
		}
		assert.InDelta(t, 0.5, sum/10000, 0.02)
	})
}

func TestSourceFunc(t *testing.T) {
	var src RandomSource = SourceFunc(func() float64 { return 0.42 })
	assert.Equal(t, 0.42, src.Float64())
}

func TestSecureStreams(t *testing.T) {
	gen := NewSecureRandomGenerator(8)
	streams := SecureStreams{Generator: gen}

	assert.Same(t, gen, streams.Stream(0))
	assert.Same(t, gen, streams.Stream(99))
}

func TestNewRandomSeed(t *testing.T) {
	seen := make(map[uint64]bool)
	for range 100 {
		seen[NewRandomSeed()] = true
	}
	assert.Greater(t, len(seen), 95)
}
