package persistence

import (
	"database/sql"
	"errors"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const (
	DriverMysql  = "mysql"
	DriverSqlite = "sqlite3"
)

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv DATABASE_DRIVER=mysql|sqlite3, DATABASE_URL=root:root@(127.0.0.1:3306)/formflow?parseTime=True
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	driverType := strings.TrimSpace(os.Getenv("DATABASE_DRIVER"))
	if driverType == "" {
		driverType = DriverMysql
	}
	driverArgs := strings.TrimSpace(os.Getenv("DATABASE_URL"))

	switch driverType {
	case DriverMysql:
		if driverArgs == "" {
			driverArgs = "root:root@(127.0.0.1:3306)/formflow?charset=utf8mb4&parseTime=True&loc=Local"
		}
		if _, err := mysql.ParseDSN(driverArgs); err != nil {
			return nil, err
		}
	case DriverSqlite:
		if driverArgs == "" {
			driverArgs = "formflow.db"
		}
	default:
		return nil, errors.New("unsupported database driver " + driverType)
	}
	return &DatabaseConfig{DriverType: driverType, DriverArgs: driverArgs}, nil
}

// PrepareMysqlDatabase creates the database named in driverArgs if it does not exist
func PrepareMysqlDatabase(driverArgs string) error {
	cfg, err := mysql.ParseDSN(driverArgs)
	if err != nil {
		return err
	}
	databaseName := cfg.DBName
	if databaseName == "" {
		return errors.New("database name is absent in " + driverArgs)
	}
	cfg.DBName = ""

	db, err := sql.Open(DriverMysql, cfg.FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName + "` DEFAULT CHARACTER SET utf8mb4 DEFAULT COLLATE utf8mb4_unicode_ci")
	return err
}
