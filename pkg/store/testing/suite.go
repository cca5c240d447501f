package testing

import (
	"context"
	"testing"

	"github.com/marmos91/storfiler/pkg/store"
)

// StoreTestSuite checks the store.Store contract. It tests observable
// behaviour only, so it runs unchanged against every backend.
//
// Usage:
//
//	func TestMyStore(t *testing.T) {
//	    suite := &storetesting.StoreTestSuite{
//	        NewStore: func(t *testing.T) store.Store {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func(t *testing.T) store.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("ReadWrite", suite.RunReadWriteTests)
	t.Run("Delete", suite.RunDeleteTests)
	t.Run("List", suite.RunListTests)
	t.Run("Cancellation", suite.RunCancellationTests)
}

func testContext() context.Context {
	return context.Background()
}
