package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	t.Run("Missing sections fall back to defaults", func(t *testing.T) {
		conf := MustLoad(writeConfig(t, "log-level: debug\n"))

		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, 13, conf.Game.HandSize)
		assert.Equal(t, 80, conf.Game.MaxScore)
		assert.Equal(t, 30*time.Second, conf.Game.TurnTimeout)
		assert.Equal(t, 10*time.Second, conf.Lock.TTL)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, defaultTableTypes, conf.TableTypes)
	})

	t.Run("Table types are read from the file", func(t *testing.T) {
		conf := MustLoad(writeConfig(t, `
table-types:
  - id: deals-4
    max-players: 4
    point-value: 0.5
    min-balance: 40
`))

		tableType, ok := conf.TableType("deals-4")
		require.True(t, ok)
		assert.Equal(t, entity.TableType{ID: "deals-4", MaxPlayers: 4, PointValue: 0.5, MinBalance: 40}, tableType)

		_, ok = conf.TableType("points-2")
		assert.False(t, ok)
	})

	t.Run("A table larger than the seat alphabet is rejected", func(t *testing.T) {
		path := writeConfig(t, `
table-types:
  - id: huge
    max-players: 7
`)

		assert.Panics(t, func() {
			MustLoad(path)
		})
	})
}
