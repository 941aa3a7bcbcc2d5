// internal/workers/admission/match-colleges/handler_test.go
package matchcolleges

import (
	"context"
	"path/filepath"
	"testing"

	"counseling-workers/internal/catalog"
	"counseling-workers/internal/common/errors"
	"counseling-workers/internal/common/logger"
	"counseling-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestCatalog(t *testing.T) *catalog.Catalog {
	cat, err := catalog.Load(filepath.Join("..", "..", "..", "..", "configs", "catalog.json"))
	require.NoError(t, err)
	return cat
}

func createTestHandler(t *testing.T, cat *catalog.Catalog) *Handler {
	return NewHandler(LoadConfig(), cat, logger.NewTestLogger(t))
}

func TestHandler_Execute_EligibilityFilter(t *testing.T) {
	handler := createTestHandler(t, loadTestCatalog(t))

	t.Run("rank above cutoff is excluded", func(t *testing.T) {
		// IITB Computer Science general cutoff is 500, so rank 1500 must
		// not surface it while looser cutoffs still qualify.
		output, err := handler.Execute(context.Background(), &Input{
			ExamType: models.ExamJEE,
			Rank:     1500,
			Category: models.CategoryGeneral,
		})
		require.NoError(t, err)

		for _, opt := range output.Options {
			assert.LessOrEqual(t, 1500, opt.CutoffRank)
			if opt.InstitutionCode == "IITB" {
				assert.NotEqual(t, "Computer Science", opt.Program)
			}
		}
	})

	t.Run("every option satisfies its cutoff", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			ExamType: models.ExamJEE,
			Rank:     2500,
			Category: models.CategorySC,
		})
		require.NoError(t, err)
		assert.Equal(t, len(output.Options), output.Total)
		for _, opt := range output.Options {
			assert.GreaterOrEqual(t, opt.CutoffRank, 2500)
		}
	})

	t.Run("neet partition excludes engineering institutions", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			ExamType: models.ExamNEET,
			Rank:     90,
			Category: models.CategoryGeneral,
		})
		require.NoError(t, err)
		require.Equal(t, 2, output.Total)
		for _, opt := range output.Options {
			assert.Equal(t, "MBBS", opt.Program)
		}
	})

	t.Run("no eligible option is not an error", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			ExamType: models.ExamNEET,
			Rank:     5000000,
			Category: models.CategoryGeneral,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, output.Total)
		assert.Empty(t, output.Options)
	})
}

func TestHandler_Execute_ChanceTiers(t *testing.T) {
	handler := createTestHandler(t, loadTestCatalog(t))

	// IITB CS general cutoff 500: 400 = 0.8*500 is High, 450 = 0.9*500 is
	// Medium, anything above up to the cutoff is Low.
	tests := []struct {
		rank     int
		expected ChanceTier
	}{
		{400, ChanceHigh},
		{401, ChanceMedium},
		{450, ChanceMedium},
		{451, ChanceLow},
		{500, ChanceLow},
	}

	for _, tt := range tests {
		output, err := handler.Execute(context.Background(), &Input{
			ExamType: models.ExamJEE,
			Rank:     tt.rank,
			Category: models.CategoryGeneral,
		})
		require.NoError(t, err)

		found := false
		for _, opt := range output.Options {
			if opt.InstitutionCode == "IITB" && opt.Program == "Computer Science" {
				assert.Equal(t, tt.expected, opt.ChanceTier, "rank %d", tt.rank)
				found = true
			}
		}
		assert.True(t, found, "rank %d should be eligible for IITB CS", tt.rank)
	}
}

func TestHandler_Execute_Ordering(t *testing.T) {
	handler := createTestHandler(t, loadTestCatalog(t))

	t.Run("chance tiers come out high to low", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			ExamType: models.ExamJEE,
			Rank:     1500,
			Category: models.CategoryGeneral,
		})
		require.NoError(t, err)
		require.NotEmpty(t, output.Options)

		prev := 0
		for _, opt := range output.Options {
			assert.GreaterOrEqual(t, chanceOrder[opt.ChanceTier], prev)
			prev = chanceOrder[opt.ChanceTier]
		}
	})

	// Rank 4000 in the SC category is eligible for Mechanical Engineering
	// at all three IITs (Low chance) and for every NITT program (High
	// chance), so preference passes see a mix of tiers and programs.
	mixedInput := func(prefs *Preferences) *Input {
		return &Input{
			ExamType:    models.ExamJEE,
			Rank:        4000,
			Category:    models.CategorySC,
			Preferences: prefs,
		}
	}

	t.Run("tier preference front-loads matching institutions", func(t *testing.T) {
		output, err := handler.Execute(context.Background(),
			mixedInput(&Preferences{InstitutionTier: "IIT"}))
		require.NoError(t, err)
		require.Len(t, output.Options, 6)

		seenOther := false
		for _, opt := range output.Options {
			if opt.InstitutionCode != "NITT" {
				assert.False(t, seenOther, "preferred tier must precede the rest")
			} else {
				seenOther = true
			}
		}
	})

	t.Run("program preference dominates tier preference", func(t *testing.T) {
		output, err := handler.Execute(context.Background(),
			mixedInput(&Preferences{
				InstitutionTier: "IIT",
				Program:         "Computer Science",
			}))
		require.NoError(t, err)
		require.Len(t, output.Options, 6)

		// NITT is the only Computer Science option here, so the program
		// pass puts it ahead of the preferred-tier institutions.
		assert.Equal(t, "Computer Science", output.Options[0].Program)
		assert.Equal(t, "NITT", output.Options[0].InstitutionCode)
	})

	t.Run("preference passes are stable within groups", func(t *testing.T) {
		base, err := handler.Execute(context.Background(), mixedInput(nil))
		require.NoError(t, err)

		preferred, err := handler.Execute(context.Background(),
			mixedInput(&Preferences{InstitutionTier: "IIT"}))
		require.NoError(t, err)

		var baseOthers, prefOthers []Option
		for _, opt := range base.Options {
			if opt.InstitutionCode == "NITT" {
				baseOthers = append(baseOthers, opt)
			}
		}
		for _, opt := range preferred.Options {
			if opt.InstitutionCode == "NITT" {
				prefOthers = append(prefOthers, opt)
			}
		}
		assert.Equal(t, baseOthers, prefOthers,
			"options outside the preferred tier keep their relative order")
	})
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	handler := createTestHandler(t, loadTestCatalog(t))

	tests := []struct {
		name  string
		input *Input
	}{
		{"unsupported exam type", &Input{ExamType: "cat", Rank: 100, Category: models.CategoryGeneral}},
		{"unknown category", &Input{ExamType: models.ExamJEE, Rank: 100, Category: "ews"}},
		{"zero rank", &Input{ExamType: models.ExamJEE, Rank: 0, Category: models.CategoryGeneral}},
		{"negative rank", &Input{ExamType: models.ExamJEE, Rank: -5, Category: models.CategoryGeneral}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
		})
	}
}
