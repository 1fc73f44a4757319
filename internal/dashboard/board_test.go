package dashboard

import (
	"testing"

	"github.com/lalith-99/minicrm/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBoard(t *testing.T) {
	deals := []models.Deal{
		{Name: "b", Stage: models.StageProposal, Value: decimal.RequireFromString("100.50")},
		{Name: "a", Stage: models.StageProspecting, Value: decimal.RequireFromString("10")},
		{Name: "c", Stage: models.StageProposal, Value: decimal.RequireFromString("0.50")},
		{Name: "won", Stage: models.StageClosedWon, Value: decimal.RequireFromString("7")},
	}

	board := BuildBoard(deals)
	require.Len(t, board, len(models.DealStages))
	for i, stage := range models.DealStages {
		assert.Equal(t, stage, board[i].Stage)
		assert.Equal(t, stage.Label(), board[i].Label)
		assert.NotNil(t, board[i].Deals)
	}

	proposal := board[2]
	require.Len(t, proposal.Deals, 2)
	assert.Equal(t, "b", proposal.Deals[0].Name)
	assert.Equal(t, "c", proposal.Deals[1].Name)
	assert.True(t, decimal.RequireFromString("101").Equal(proposal.Total))

	assert.Len(t, board[4].Deals, 1)
	assert.Empty(t, board[1].Deals)
	assert.True(t, board[1].Total.IsZero())
}

func TestBuildBoardEmpty(t *testing.T) {
	board := BuildBoard(nil)
	require.Len(t, board, 6)
	for _, col := range board {
		assert.Empty(t, col.Deals)
	}
}
