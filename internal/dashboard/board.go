package dashboard

import (
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/shopspring/decimal"
)

// BuildBoard groups deals into one column per stage, in pipeline order.
// Every stage gets a column, closed ones included, and deals keep their
// relative order within a column.
func BuildBoard(deals []models.Deal) []models.BoardColumn {
	index := make(map[models.DealStage]int, len(models.DealStages))
	board := make([]models.BoardColumn, len(models.DealStages))
	for i, stage := range models.DealStages {
		index[stage] = i
		board[i] = models.BoardColumn{
			Stage: stage,
			Label: stage.Label(),
			Deals: make([]models.Deal, 0),
			Total: decimal.Zero,
		}
	}

	for _, d := range deals {
		i, ok := index[d.Stage]
		if !ok {
			continue
		}
		board[i].Deals = append(board[i].Deals, d)
		board[i].Total = board[i].Total.Add(d.Value)
	}
	return board
}
