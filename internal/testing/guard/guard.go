// Package guard switches the process into test mode when imported, so that
// binaries under test never open listeners or connect to Redis.
package guard

import (
	"os"

	"github.com/iamxdv30/TheOmnitool-sub000/internal/app"
)

func init() {
	if os.Getenv(app.TestModeEnv) == "" {
		_ = os.Setenv(app.TestModeEnv, "1")
	}
}
