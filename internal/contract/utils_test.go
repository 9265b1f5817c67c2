package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path is stdout", func(t *testing.T) {
		f, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, f)
	})

	t.Run("creates file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		f, err := SelectOutputFile(path)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})
}

func TestGetLedgerDBFilePath(t *testing.T) {
	path := GetLedgerDBFilePath()
	assert.True(t, strings.HasSuffix(path, ".blameledger.db"))
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		maxWidth int
		expected string
	}{
		{"short path untouched", "main.go", 20, "main.go"},
		{"long path truncated", "internal/ledger/ownership.go", 12, "...ership.go"},
		{"tiny width untouched", "internal/ledger/ownership.go", 3, "internal/ledger/ownership.go"},
		{"unicode aware", "dossier/résumé.go", 8, "...mé.go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncatePath(tt.path, tt.maxWidth))
		})
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(logrus.DebugLevel)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}
