package observability

import (
	"os"

	"github.com/danmuck/essence/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger installs the runtime console logger tagged with app.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	logger := logging.New(os.Stdout).With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
