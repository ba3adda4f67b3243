package clickhouse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "xllucky",
		User:        "default",
		Password:    "secret",
		DialTimeout: 5 * time.Second,
		AsyncInsert: true,
	})

	assert.True(t, strings.HasPrefix(dsn, "clickhouse://default:secret@ch:9000/xllucky?"))
	assert.Contains(t, dsn, "dial_timeout=5s")
	assert.Contains(t, dsn, "async_insert=1")
	assert.NotContains(t, dsn, "wait_for_async_insert")
}

func TestBuildDSNHTTP(t *testing.T) {
	dsn := buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "d", UseHTTP: true})
	assert.True(t, strings.HasPrefix(dsn, "http://"))
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}

func TestScoreSchema(t *testing.T) {
	stmts := ScoreSchema("xllucky")
	assert.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "xllucky.scores")
}
