package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counseling-workers/internal/models"
)

func TestLoad_BundledDataset(t *testing.T) {
	cat, err := Load(filepath.Join("..", "..", "configs", "catalog.json"))
	require.NoError(t, err)
	require.Equal(t, 6, cat.Len())

	iitb, ok := cat.Institution("IITB")
	require.True(t, ok)
	assert.Equal(t, "Indian Institute of Technology, Bombay", iitb.Name)
	assert.Equal(t, "IIT", iitb.Tier)
	require.Len(t, iitb.Programs, 3)

	cs := iitb.Programs[0]
	assert.Equal(t, "Computer Science", cs.Name)
	cutoff, ok := cs.Cutoff(models.CategoryGeneral)
	require.True(t, ok)
	assert.Equal(t, 500, cutoff)
	require.NotNil(t, cs.Seats)
	assert.Equal(t, 120, cs.Seats.Total)
	assert.Equal(t, 33, cs.Seats.ByCategory["obc"])

	// IITM publishes cutoffs but no seat matrix.
	iitm, ok := cat.Institution("IITM")
	require.True(t, ok)
	for _, prog := range iitm.Programs {
		assert.Nil(t, prog.Seats)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_InvalidDataset(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"institutions": [`},
		{"empty catalog", `{"institutions": []}`},
		{"missing code", `{"institutions": [{"name": "X", "tier": "IIT", "programs": [{"name": "CS", "cutoffs": {"general": 10}}]}]}`},
		{"no programs", `{"institutions": [{"name": "X", "code": "X", "tier": "IIT", "programs": []}]}`},
		{"unknown category", `{"institutions": [{"name": "X", "code": "X", "tier": "IIT", "programs": [{"name": "CS", "cutoffs": {"ews": 10}}]}]}`},
		{"non-positive cutoff", `{"institutions": [{"name": "X", "code": "X", "tier": "IIT", "programs": [{"name": "CS", "cutoffs": {"general": 0}}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.payload), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestNew_DuplicateCode(t *testing.T) {
	_, err := New([]Institution{
		{Name: "A", Code: "X", Tier: "IIT"},
		{Name: "B", Code: "X", Tier: "NIT"},
	})
	assert.Error(t, err)
}

func TestPartition(t *testing.T) {
	cat, err := Load(filepath.Join("..", "..", "configs", "catalog.json"))
	require.NoError(t, err)

	jee := cat.Partition(models.ExamJEE)
	require.Len(t, jee, 4)
	for _, inst := range jee {
		assert.NotEqual(t, TierMedical, inst.Tier)
	}
	// Catalog order is preserved within the partition.
	assert.Equal(t, "IITB", jee[0].Code)
	assert.Equal(t, "NITT", jee[3].Code)

	neet := cat.Partition(models.ExamNEET)
	require.Len(t, neet, 2)
	assert.Equal(t, "AIIMS", neet[0].Code)
	assert.Equal(t, "CMC", neet[1].Code)
}
