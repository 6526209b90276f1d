package keylock_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-loan-ledger/internal/keylock"
)

func Test_Locker_SerializesSameKey(t *testing.T) {
	var locker keylock.Locker
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("978-1-098-10013-1")
			defer unlock()

			current := counter
			counter = current + 1
		}()
	}

	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Equal(t, 0, locker.Len(), "released keys should not be tracked anymore")
}

func Test_Locker_DifferentKeysDoNotBlock(t *testing.T) {
	var locker keylock.Locker

	unlockFirst := locker.Lock("first")
	unlockSecond := locker.Lock("second")

	assert.Equal(t, 2, locker.Len())

	unlockSecond()
	unlockFirst()

	assert.Equal(t, 0, locker.Len())
}
