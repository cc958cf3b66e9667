package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// ConnectDatabaseWithRetry connects and sets the global DB.
// DB_CONNECT_MAX_ATTEMPTS bounds the retries (0 = retry forever).
func ConnectDatabaseWithRetry() error {
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	network := "tcp"
	address := fmt.Sprintf("%s:%s", dbHost, dbPort)
	// Cloud SQL Auth Proxy exposes a unix socket under /cloudsql/<CONNECTION_NAME>.
	if strings.HasPrefix(dbHost, "/cloudsql/") {
		network = "unix"
		address = dbHost
	}

	dsn := fmt.Sprintf("%s:%s@%s(%s)/%s?multiStatements=true&parseTime=true",
		dbUser,
		dbPassword,
		network,
		address,
		dbName,
	)

	maxAttempts := intFromEnv("DB_CONNECT_MAX_ATTEMPTS", 0)
	logger := GetLogger()
	for attempt := 1; ; attempt++ {
		conn, err := gorm.Open(mysql.Open(dsn), initConfig())
		if err == nil {
			err = configurePool(conn)
		}
		if err == nil {
			if pluginErr := conn.Use(otelgorm.NewPlugin()); pluginErr != nil {
				LogError(logger, "database.go", "ConnectDatabaseWithRetry", "install otelgorm plugin", dbHost, pluginErr)
			}
			db = conn
			LogInfo(logger, "database.go", "ConnectDatabaseWithRetry", "connected to database", logrus.Fields{"attempt": attempt, "db": dbName})
			return nil
		}

		if maxAttempts > 0 && attempt >= maxAttempts {
			return fmt.Errorf("connect database after %d attempts: %w", attempt, err)
		}
		sleep := backoff(attempt)
		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"retry":   sleep.String(),
		}).Warn("failed to connect database: " + err.Error())
		time.Sleep(sleep)
	}
}

// configurePool applies DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS and
// DB_CONN_MAX_LIFETIME_SECONDS. The whole snapshot is rewritten in one
// transaction, so a small pool is enough.
func configurePool(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if maxOpen := intFromEnv("DB_MAX_OPEN_CONNS", 10); maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle := intFromEnv("DB_MAX_IDLE_CONNS", 5); maxIdle >= 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if life := intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300); life > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(life) * time.Second)
	}
	return nil
}

func backoff(attempt int) time.Duration {
	return time.Second * time.Duration(1<<min(attempt, 5))
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: initNamingStrategy(),
	}
}

// initLog sends gorm's slow-query and error lines through the service logger.
// DB_LOG_LEVEL=info logs every statement.
func initLog() gormlogger.Interface {
	level := gormlogger.Error
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DB_LOG_LEVEL"))) {
	case "silent":
		level = gormlogger.Silent
	case "warn":
		level = gormlogger.Warn
	case "info":
		level = gormlogger.Info
	}
	return gormlogger.New(GetLogger(), gormlogger.Config{
		Colorful:                  false,
		LogLevel:                  level,
		SlowThreshold:             time.Second,
		IgnoreRecordNotFoundError: true,
	})
}

// initNamingStrategy lets several ledgers share a schema through DB_TABLE_PREFIX.
func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		TablePrefix: strings.TrimSpace(os.Getenv("DB_TABLE_PREFIX")),
	}
}
