// internal/workers/admission/seat-matrix/handler_test.go
package seatmatrix

import (
	"context"
	"path/filepath"
	"testing"

	"counseling-workers/internal/catalog"
	"counseling-workers/internal/common/errors"
	"counseling-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T) *Handler {
	cat, err := catalog.Load(filepath.Join("..", "..", "..", "..", "configs", "catalog.json"))
	require.NoError(t, err)
	return NewHandler(LoadConfig(), cat, logger.NewTestLogger(t))
}

func TestHandler_Execute_SingleProgram(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		InstitutionCode: "IITB",
		Program:         "Computer Science",
	})

	require.NoError(t, err)
	assert.Equal(t, "IITB", output.InstitutionCode)
	assert.Equal(t, "Computer Science", output.Program)
	require.NotNil(t, output.Seats)
	assert.Equal(t, 120, output.Seats.Total)
	assert.Equal(t, map[string]int{"general": 60, "sc": 18, "st": 9, "obc": 33}, output.Seats.ByCategory)
	assert.Empty(t, output.Programs)
	assert.Empty(t, output.Institutions)
}

func TestHandler_Execute_Institution(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{InstitutionCode: "IITD"})

	require.NoError(t, err)
	assert.Equal(t, "IITD", output.InstitutionCode)
	require.Len(t, output.Programs, 3)
	assert.Equal(t, "Computer Science", output.Programs[0].Program)
	assert.Equal(t, 110, output.Programs[0].Seats.Total)
	assert.Nil(t, output.Seats)
}

func TestHandler_Execute_FullMatrix(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	// Only IITB, IITD and AIIMS publish seat data.
	require.Len(t, output.Institutions, 3)
	codes := []string{}
	for _, inst := range output.Institutions {
		codes = append(codes, inst.InstitutionCode)
	}
	assert.Equal(t, []string{"IITB", "IITD", "AIIMS"}, codes)

	aiims := output.Institutions[2]
	require.Len(t, aiims.Programs, 1)
	assert.Equal(t, "MBBS", aiims.Programs[0].Program)
	assert.Equal(t, 100, aiims.Programs[0].Seats.Total)
}

func TestHandler_Execute_NotFound(t *testing.T) {
	handler := createTestHandler(t)

	tests := []struct {
		name  string
		input *Input
	}{
		{"unknown institution", &Input{InstitutionCode: "XXXX"}},
		{"institution without seat data", &Input{InstitutionCode: "IITM"}},
		{"unknown program", &Input{InstitutionCode: "IITB", Program: "Astrophysics"}},
		{"program without seat data", &Input{InstitutionCode: "CMC", Program: "MBBS"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
		})
	}
}

func TestHandler_Execute_ProgramWithoutInstitution(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{Program: "MBBS"})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}
