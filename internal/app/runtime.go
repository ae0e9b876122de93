package app

import (
	"os"
	"strconv"
	"sync"
)

// TestModeEnv names the variable that keeps binaries from starting servers.
const TestModeEnv = "TAXENGINE_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
})

// InTestMode reports whether the process runs under tests. The variable is
// read once; later changes are ignored.
func InTestMode() bool {
	return testMode()
}
