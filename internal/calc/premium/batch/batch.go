package batch

import (
	"errors"
	"fmt"

	"Gascalc/internal/calc/gas"
)

var ErrNoItems = errors.New("no items")

type GasBatchInput struct {
	Items []gas.RoomDimensions `json:"items"`
}

type GasBatchResult struct {
	Results []gas.GasCalculationResult `json:"results"`
}

// ItemError names the position of the first room that failed validation.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// CalculateGas sizes every room or none: the first invalid item aborts the batch.
func CalculateGas(engine *gas.Engine, in GasBatchInput, limit int) (GasBatchResult, error) {
	if len(in.Items) == 0 {
		return GasBatchResult{}, ErrNoItems
	}
	if limit > 0 && len(in.Items) > limit {
		return GasBatchResult{}, fmt.Errorf("%w: %d items, limit is %d", gas.ErrInvalidInput, len(in.Items), limit)
	}
	out := GasBatchResult{Results: make([]gas.GasCalculationResult, 0, len(in.Items))}
	for i, item := range in.Items {
		res, err := engine.Calculate(item)
		if err != nil {
			return GasBatchResult{}, &ItemError{Index: i, Err: err}
		}
		out.Results = append(out.Results, res)
	}
	return out, nil
}
