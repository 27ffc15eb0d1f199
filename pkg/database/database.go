package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sonrisa-dental/sonrisa-api/internal/config"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain/cita"
	"github.com/sonrisa-dental/sonrisa-api/internal/domain/historial"
)

// Index names for the two slot keys. The repository layer maps unique
// violations back to the matching conflict error by these names.
const (
	UniqueMedicoSlot   = "uq_citas_medico_slot"
	UniquePacienteSlot = "uq_citas_paciente_slot"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:          true,
		DisableAutomaticPing: false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	for _, schema := range []string{"clinica", "audit"} {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&cita.Cita{},
		&historial.Historial{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// createIndexes installs the two unique slot keys. These keys, not the
// advisory availability check, are what make concurrent double-booking
// impossible: exactly one of two racing inserts for the same slot commits.
func createIndexes(db *gorm.DB) error {
	indexes := []string{
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON clinica.citas (id_medico, fecha, hora)`, UniqueMedicoSlot),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON clinica.citas (id_paciente, fecha, hora)`, UniquePacienteSlot),
		`CREATE INDEX IF NOT EXISTS idx_citas_agenda ON clinica.citas (fecha, hora)`,
		`CREATE INDEX IF NOT EXISTS idx_historiales_medico_paciente ON clinica.historiales (id_medico, id_paciente, fecha DESC)`,
	}

	for _, query := range indexes {
		if err := db.Exec(query).Error; err != nil {
			return err
		}
	}

	return nil
}
