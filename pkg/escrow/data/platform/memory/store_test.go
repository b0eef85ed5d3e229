package memory

import (
	"testing"

	"github.com/agentarena/escrow-server/pkg/escrow/data/platform/tests"
)

func TestPlatformMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
