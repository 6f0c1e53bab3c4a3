package ioformat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReadEntries(t *testing.T) {
	path := writeTemp(t, "1.0 2.0 10 20\n3.0 4.0 11 21\n")
	rows, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, EntryRow{X: 1.0, Y: 2.0, RoadNode: 10, ForestNode: 20}, rows[0])
	require.Equal(t, EntryRow{X: 3.0, Y: 4.0, RoadNode: 11, ForestNode: 21}, rows[1])
}

func TestReadPopulation(t *testing.T) {
	path := writeTemp(t, "1.1 2.2 100\n3.3 4.4 200\n")
	rows, err := ReadPopulation(path)
	require.NoError(t, err)
	require.Equal(t, []PopulationRow{
		{Lat: 1.1, Lon: 2.2, Population: 100},
		{Lat: 3.3, Lon: 4.4, Population: 200},
	}, rows)
}

func TestReadParking(t *testing.T) {
	path := writeTemp(t, "1.1 2.2 3 50\n")
	rows, err := ReadParking(path)
	require.NoError(t, err)
	require.Equal(t, []ParkingRow{{Lat: 1.1, Lon: 2.2, Rank: 3, Population: 50}}, rows)
}

func TestReadPreferences_ConvertsMinutesToSeconds(t *testing.T) {
	path := writeTemp(t, "1 0.3\n2 0.2\n5 0.1\n")
	upperBound, share, err := ReadPreferences(path)
	require.NoError(t, err)
	require.Equal(t, []float64{60, 120, 300}, upperBound)
	require.Equal(t, []float64{0.3, 0.2, 0.1}, share)
}

func TestReadColumnFile_RoundRobinsAcrossLines(t *testing.T) {
	// Token count need not align with line breaks; columns are determined
	// purely by the first line's token count, matching the original's
	// whitespace-agnostic reader.
	path := writeTemp(t, "1 2 3\n4 5 6\n7 8 9\n")
	cols, err := readColumnFile(path)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1, 4, 7}, {2, 5, 8}, {3, 6, 9}}, cols)
}

func TestReadEntries_TooFewColumns(t *testing.T) {
	path := writeTemp(t, "1 2\n3 4\n")
	_, err := ReadEntries(path)
	require.Error(t, err)
}

func TestReadColumnFile_MissingFile(t *testing.T) {
	_, err := readColumnFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestReadColumnFile_NonNumericToken(t *testing.T) {
	path := writeTemp(t, "1 abc\n")
	_, err := readColumnFile(path)
	require.Error(t, err)
}

func TestReadFloats(t *testing.T) {
	path := writeTemp(t, "1.5\n\n2\n0\n")
	values, err := ReadFloats(path)
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 2, 0}, values)
}

func TestWriteFloats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, WriteFloats(path, []float32{1.5, 2, 0}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "1.5\n2\n0\n", string(data))
}

func TestWriteFloats64(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out64.txt")
	require.NoError(t, WriteFloats64(path, []float64{1.5, 2, 0}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "1.5\n2\n0\n", string(data))
}
