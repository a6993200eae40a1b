package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQL(t *testing.T) {
	scripts, err := MySQL()
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Contains(t, scripts[0], "CREATE TABLE IF NOT EXISTS sms_records")
}

func TestClickHouse(t *testing.T) {
	stmts, err := ClickHouse()
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE DATABASE"))
	assert.Contains(t, stmts[1], "smsgw.sms_reports")
	assert.Contains(t, stmts[2], "smsgw.sms_mo")
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Split(" a ;\n\n; b;"))
	assert.Nil(t, Split(" ;\n"))
}
