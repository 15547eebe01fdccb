package bloom_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/locsearch/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	t.Parallel()

	t.Run("added URLs test positive", func(t *testing.T) {
		t.Parallel()

		f := bloom.NewFilter(1000, 0.01)

		assert.False(t, f.Test("https://example.com/page1"))
		f.Add("https://example.com/page1")
		assert.True(t, f.Test("https://example.com/page1"))
		assert.False(t, f.Test("https://example.com/page2"))
	})

	t.Run("estimated count tracks additions", func(t *testing.T) {
		t.Parallel()

		f := bloom.NewFilter(1000, 0.01)
		assert.Equal(t, uint(0), f.EstimatedCount())

		f.Add("https://example.com/page1")
		f.Add("https://example.com/page2")
		f.Add("https://example.com/page3")

		count := f.EstimatedCount()
		assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
	})

	t.Run("re-adding a URL changes nothing", func(t *testing.T) {
		t.Parallel()

		f := bloom.NewFilter(1000, 0.01)
		url := "https://example.com/page1"

		f.Add(url)
		after := f.EstimatedCount()
		f.Add(url)
		f.Add(url)

		assert.Equal(t, after, f.EstimatedCount())
		assert.True(t, f.Test(url))
	})

	t.Run("false positive rate stays near the target", func(t *testing.T) {
		t.Parallel()

		const (
			numItems   = 10000
			fpRate     = 0.01
			testProbes = 10000
		)

		f := bloom.NewFilter(numItems, fpRate)
		for i := range numItems {
			f.Add(fmt.Sprintf("https://example.com/added/%d", i))
		}

		falsePositives := 0
		for i := range testProbes {
			if f.Test(fmt.Sprintf("https://example.com/notadded/%d", i)) {
				falsePositives++
			}
		}

		// Twice the configured rate leaves room for statistical variance.
		actualRate := float64(falsePositives) / float64(testProbes)
		assert.Less(t, actualRate, 2*fpRate, "false positive rate %f", actualRate)
	})
}
