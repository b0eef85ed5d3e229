package memory

import (
	"testing"

	"github.com/agentarena/escrow-server/pkg/escrow/data/bet/tests"
)

func TestBetMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
