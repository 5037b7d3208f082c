package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"privaflow/pkg/logger"
)

// Migrate applies all pending schema migrations from sourceURL (for example
// "file://migrations") against databaseURL. An already up-to-date schema is
// not an error.
func Migrate(sourceURL, databaseURL string) error {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("[Store] Schema already up to date")
			return nil
		}
		return fmt.Errorf("applying migrations: %w", err)
	}
	logger.Info("[Store] Schema migrations applied")
	return nil
}
