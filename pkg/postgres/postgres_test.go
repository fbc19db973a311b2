package postgres

import (
	"signals-service/config"
	"testing"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	cfg := config.Database{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "signals", SSLMode: "disable", TimeZone: "UTC"}

	assert.Equal(t, "host=db user=u password=p dbname=signals port=5433 sslmode=disable TimeZone=UTC", DSN(cfg))
	assert.Equal(t, "postgres://u:p@db:5433/signals?sslmode=disable", URL(cfg))
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, gormLogLevel("Silent"))
	assert.Equal(t, gormlogger.Info, gormLogLevel("Info"))
	assert.Equal(t, gormlogger.Warn, gormLogLevel("whatever"))
}

func TestCloseNil(t *testing.T) {
	var db *DB
	assert.NoError(t, db.Close())
}
