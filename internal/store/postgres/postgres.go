package pgstore

import (
	"fmt"
	"strconv"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/dwarvesf/alph-swap-backend/internal/types/environments"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
)

const defaultEmbeddedPort = 5433

type PostgresStore struct {
	db       *gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// New opens the configured database. With the embedded driver it first boots
// a local postgres server that lives as long as the returned store.
func New(appConfig *config.AppConfig, logger *logger.Logger) *PostgresStore {
	s := &PostgresStore{}
	conn := appConfig.Postgres

	if appConfig.Store.Driver == config.StoreDriverEmbedded {
		embedded, embeddedConn, err := startEmbedded(conn)
		if err != nil {
			logger.Fatal("[pgstore.New][startEmbedded] failed to start embedded postgres", map[string]string{
				"error": err.Error(),
			})
		}
		s.embedded = embedded
		conn = embeddedConn
		logger.Info("[pgstore.New] embedded postgres started", map[string]string{
			"port": conn.Port,
		})
	}

	db, err := connectPostgres(conn, appConfig.Environment)
	if err != nil {
		logger.Fatal("[pgstore.New][connectPostgres] failed to connect to postgres", map[string]string{
			"error": err.Error(),
		})
	}
	s.db = db

	logger.Info("[pgstore.New] database connected")
	return s
}

func (s *PostgresStore) DB() *gorm.DB {
	return s.db
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if s.embedded != nil {
		return s.embedded.Stop()
	}
	return nil
}

func startEmbedded(conn config.DBConnection) (*embeddedpostgres.EmbeddedPostgres, config.DBConnection, error) {
	port := uint32(defaultEmbeddedPort)
	if conn.Port != "" {
		p, err := strconv.ParseUint(conn.Port, 10, 32)
		if err != nil {
			return nil, conn, fmt.Errorf("invalid DB_PORT %q: %w", conn.Port, err)
		}
		port = uint32(p)
	}

	resolved := config.DBConnection{
		Host:    "localhost",
		Port:    strconv.FormatUint(uint64(port), 10),
		User:    valueOr(conn.User, "postgres"),
		Pass:    valueOr(conn.Pass, "postgres"),
		Name:    valueOr(conn.Name, "alph_swap"),
		SSLMode: "disable",
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Username(resolved.User).
			Password(resolved.Pass).
			Database(resolved.Name).
			Port(port),
	)
	if err := db.Start(); err != nil {
		return nil, conn, err
	}
	return db, resolved, nil
}

func connectPostgres(conn config.DBConnection, env environments.Environment) (*gorm.DB, error) {
	ds := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		conn.Host,
		conn.User,
		conn.Pass,
		conn.Name,
		conn.Port,
		conn.SSLMode,
	)

	logLevel := gormlogger.Warn
	if env == environments.Production || env == environments.Test {
		logLevel = gormlogger.Silent
	}

	return gorm.Open(postgres.Open(ds),
		&gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				SingularTable: false,
			},
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(logLevel),
		})
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
