package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmoney/internal/config"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres", Config{Type: PostgresBackend, DatabaseURL: "postgres://localhost/cmoney"}, false},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", AMQPURL: "amqp://localhost", AMQPExchange: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	c, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "data/cmoney.db"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, c.Type)
	assert.Equal(t, "data/cmoney.db", c.SQLiteDBPath)
}

func TestCreateBackend_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cmoney.db")

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, res.Cleanup()) })

	assert.Nil(t, res.AMQP)
	require.NotNil(t, res.Services)
	assert.NoError(t, res.Repository.Ping(context.Background()))
}
