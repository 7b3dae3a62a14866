package datasource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing test csv: %v", err)
	}
	return path
}

func drain(t *testing.T, iter RowIter) []Row {
	t.Helper()
	var rows []Row
	for {
		row, err := iter.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.NoError(t, iter.Close())
	return rows
}

// TestCSVAdapter_IngestAndIterate tests the full ingest-and-read cycle
func TestCSVAdapter_IngestAndIterate(t *testing.T) {
	path := writeCSV(t, "expenses.csv",
		"id,category,amount\n"+
			"1,travel,400\n"+
			"2,personal,120\n"+
			"3,meals,35\n")

	adapter, err := openCSVAdapter(path)
	require.NoError(t, err)
	defer adapter.Close()

	count, err := adapter.RowCount(context.Background(), "expenses")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	iter, err := adapter.OpenRows(context.Background(), "expenses")
	require.NoError(t, err)
	rows := drain(t, iter)

	require.Len(t, rows, 3)
	got := map[string]string{}
	for _, row := range rows {
		got[row["id"].(string)] = row["category"].(string)
	}
	assert.Equal(t, "personal", got["2"])
	assert.Equal(t, "meals", got["3"])
}

// TestCSVAdapter_AnyLogicalTableResolves tests that rule target tables all
// resolve to the single ingested table
func TestCSVAdapter_AnyLogicalTableResolves(t *testing.T) {
	path := writeCSV(t, "upload.csv", "id,v\n1,a\n")

	adapter, err := openCSVAdapter(path)
	require.NoError(t, err)
	defer adapter.Close()

	for _, table := range []string{"users", "expenses", "anything"} {
		iter, err := adapter.OpenRows(context.Background(), table)
		require.NoError(t, err, "table %s", table)
		rows := drain(t, iter)
		assert.Len(t, rows, 1)
	}
}

// TestCSVAdapter_SyntheticID tests that files without an id column get a
// positional one
func TestCSVAdapter_SyntheticID(t *testing.T) {
	path := writeCSV(t, "no_id.csv", "name,city\nana,lisbon\nbob,porto\n")

	adapter, err := openCSVAdapter(path)
	require.NoError(t, err)
	defer adapter.Close()

	iter, err := adapter.OpenRows(context.Background(), "no_id")
	require.NoError(t, err)
	rows := drain(t, iter)

	require.Len(t, rows, 2)
	ids := map[string]bool{}
	for _, row := range rows {
		id, ok := row["id"].(string)
		require.True(t, ok, "row should carry synthetic id, got %v", row["id"])
		ids[id] = true
	}
	assert.True(t, ids["0"])
	assert.True(t, ids["1"])
}

// TestCSVAdapter_HeaderNormalization tests header cleanup: case, spaces,
// hyphens and duplicates
func TestCSVAdapter_HeaderNormalization(t *testing.T) {
	path := writeCSV(t, "messy.csv",
		"ID,Full Name,billing-code,Full Name\n"+
			"7,Jo,B1,Jo2\n")

	adapter, err := openCSVAdapter(path)
	require.NoError(t, err)
	defer adapter.Close()

	iter, err := adapter.OpenRows(context.Background(), "messy")
	require.NoError(t, err)
	rows := drain(t, iter)

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "7", row["id"])
	assert.Equal(t, "Jo", row["full_name"])
	assert.Equal(t, "B1", row["billing_code"])
	assert.Equal(t, "Jo2", row["full_name_1"])
}

// TestCSVAdapter_QuotedValues tests that embedded quotes and commas survive ingestion
func TestCSVAdapter_QuotedValues(t *testing.T) {
	path := writeCSV(t, "quoted.csv",
		"id,note\n"+
			"1,\"it's fine, really\"\n")

	adapter, err := openCSVAdapter(path)
	require.NoError(t, err)
	defer adapter.Close()

	iter, err := adapter.OpenRows(context.Background(), "quoted")
	require.NoError(t, err)
	rows := drain(t, iter)

	require.Len(t, rows, 1)
	assert.Equal(t, "it's fine, really", rows[0]["note"])
}

// TestCSVAdapter_BackslashValues tests that values containing backslashes,
// like Windows paths, survive ingestion instead of breaking the source
func TestCSVAdapter_BackslashValues(t *testing.T) {
	path := writeCSV(t, "dirs.csv",
		"id,dir\n"+
			`1,C:\data`+"\n"+
			"2,plain\n")

	adapter, err := openCSVAdapter(path)
	require.NoError(t, err)
	defer adapter.Close()

	count, err := adapter.RowCount(context.Background(), "dirs")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	iter, err := adapter.OpenRows(context.Background(), "dirs")
	require.NoError(t, err)
	rows := drain(t, iter)

	require.Len(t, rows, 2)
	got := map[string]string{}
	for _, row := range rows {
		got[row["id"].(string)] = row["dir"].(string)
	}
	assert.Equal(t, `C:\data`, got["1"])
	assert.Equal(t, "plain", got["2"])
}

// TestCSVAdapter_MissingFile tests the unavailable-source error path
func TestCSVAdapter_MissingFile(t *testing.T) {
	_, err := openCSVAdapter(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

// TestCSVTableName tests table name derivation from file names
func TestCSVTableName(t *testing.T) {
	cases := map[string]string{
		"/tmp/Expenses Q3.csv": "expenses_q3",
		"/tmp/2024-data.csv":   "t_2024_data",
		"/tmp/@@@.csv":         "data",
	}
	for locator, want := range cases {
		if got := csvTableName(locator); got != want {
			t.Errorf("csvTableName(%q) = %q, want %q", locator, got, want)
		}
	}
}
