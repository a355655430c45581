package cli

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"stubd": Main,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			// Keep the host environment's STUBD_* settings out of the scripts.
			for _, name := range []string{"STUBD_PORT", "STUBD_LOG_LEVEL", "STUBD_LOG_FORMAT", "STUBD_METRICS_PORT"} {
				env.Setenv(name, "")
			}
			return nil
		},
	})
}
