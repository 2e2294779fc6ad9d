package testlog

import (
	"testing"

	"github.com/danmuck/essence/internal/logging"
	"github.com/rs/zerolog/log"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Info().Msgf("test=%s", t.Name())
}

// Logf records one test step at debug level.
func Logf(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}
