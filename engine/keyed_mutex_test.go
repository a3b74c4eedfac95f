package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := newKeyedMutex()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("s-1")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, km.size(), "released keys are forgotten")
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := newKeyedMutex()
	unlockA := km.Lock("a")
	unlockB := km.Lock("b")
	assert.Equal(t, 2, km.size())
	unlockA()
	unlockB()
	assert.Zero(t, km.size())
}
