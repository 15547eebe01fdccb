//go:build integration

package rod_test

import (
	"testing"

	"github.com/fwojciec/locsearch/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserManager_Recycling(t *testing.T) {
	t.Parallel()

	t.Run("replaces the browser once the threshold is reached", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager(rod.WithMaxPages(3))
		require.NoError(t, err)
		defer manager.Close()

		first := manager.Browser()
		require.NotNil(t, first)

		manager.IncrementPageCount()
		manager.IncrementPageCount()
		manager.IncrementPageCount()

		second := manager.Browser()
		require.NotNil(t, second)
		assert.NotSame(t, first, second)
	})

	t.Run("keeps the browser below the threshold", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager(rod.WithMaxPages(5))
		require.NoError(t, err)
		defer manager.Close()

		first := manager.Browser()
		require.NotNil(t, first)

		manager.IncrementPageCount()
		manager.IncrementPageCount()

		assert.Same(t, first, manager.Browser())
	})
}
