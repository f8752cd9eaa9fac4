package watch_test

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/engine/watch"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls [][]string
		d := watch.NewDebouncer(50*time.Millisecond, func(paths []string) {
			calls = append(calls, paths)
		})

		d.Add("/p/src/b.scss")
		d.Add("/p/src/a.scss")
		d.Add("/p/src/a.scss")

		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		require.Len(t, calls, 1)
		assert.Equal(t, []string{"/p/src/a.scss", "/p/src/b.scss"}, calls[0])
	})
}

func TestDebouncer_WindowRestartsOnEachEvent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		calls := 0
		d := watch.NewDebouncer(50*time.Millisecond, func([]string) { calls++ })

		for range 5 {
			d.Add("/p/a.js")
			time.Sleep(40 * time.Millisecond)
		}
		synctest.Wait()
		assert.Zero(t, calls, "events kept arriving inside the window")

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 1, calls)
	})
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		calls := 0
		d := watch.NewDebouncer(50*time.Millisecond, func([]string) { calls++ })

		d.Add("/p/a.js")
		time.Sleep(100 * time.Millisecond)
		d.Add("/p/a.js")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, 2, calls)
	})
}

func TestDebouncer_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		calls := 0
		d := watch.NewDebouncer(50*time.Millisecond, func([]string) { calls++ })

		d.Add("/p/a.js")
		d.Stop()
		d.Add("/p/b.js")

		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		assert.Zero(t, calls)
	})
}
