package rollover

import (
	"go.uber.org/zap"

	"psup-auth/internal/db"
	profilerepo "psup-auth/internal/profilefield/repository"
	settingsrepo "psup-auth/internal/settings/repository"
	userrepo "psup-auth/internal/user/repository"
)

// NewPostgresEngine returns an Engine over the Postgres repositories reachable through exec.
func NewPostgresEngine(exec db.Executor, log *zap.Logger) *Engine {
	return NewEngine(
		userrepo.NewPostgresRepository(exec),
		profilerepo.NewPostgresRepository(exec),
		settingsrepo.NewPostgresRepository(exec),
		log,
	)
}
