package testinfra

import (
	"formflow/persistence"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
)

type TestDatabase struct {
	TestDatabaseName string
	DS               *persistence.DataSourceManager
}

// StartTestDatabase opens an isolated in-memory sqlite database
func StartTestDatabase(baseName string) *TestDatabase {
	databaseName := baseName + "_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	dbConfig := &persistence.DatabaseConfig{
		DriverType: persistence.DriverSqlite,
		DriverArgs: "file:" + databaseName + "?mode=memory&cache=shared&_busy_timeout=5000",
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig, DisableSQLLog: os.Getenv("TEST_SQL_LOG") == ""}
	if err := ds.Start(); err != nil {
		defer ds.Stop()
		log.Fatalf("database conneciton failed %v\n", err)
	}
	return &TestDatabase{TestDatabaseName: databaseName, DS: ds}
}

func StopTestDatabase(testDatabase *TestDatabase) {
	if testDatabase != nil && testDatabase.DS != nil {
		testDatabase.DS.Stop()
	}
}
