package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"go-messenger/migrations"
)

// Migrate applies ("up") or reverts ("down") the embedded schema migrations.
func Migrate(dsn, direction string, log *zap.Logger) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migrate: open embedded source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, normalizeDSN(dsn))
	if err != nil {
		return fmt.Errorf("migrate: init: %w", err)
	}
	defer m.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		return fmt.Errorf("migrate: unknown direction %q", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		if log != nil {
			log.Info("migrations already applied", zap.String("direction", direction))
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	if log != nil {
		version, dirty, _ := m.Version()
		log.Info("migrations applied", zap.String("direction", direction), zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}
