package app

import (
	"go-ems/internal/config"

	"go.uber.org/zap"
)

// NewLogger builds the process logger: JSON production output when
// APP_ENV=production, console development output otherwise.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
