package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/ishanwen-byte/plantevolve-go/internal/constants"
	"github.com/ishanwen-byte/plantevolve-go/internal/types"
)

// Sheet names of the workbook
const (
	SheetSummary  = "Summary"
	SheetAttempts = "Attempts"
)

// WriteXLSX saves result as a workbook with a layout sheet, a run summary
// sheet and one row per attempt
func WriteXLSX(path string, result types.EvolutionResult) error {
	f, err := workbook(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func workbook(result types.EvolutionResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", constants.XLSXSheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name layout sheet: %w", err)
	}

	if err := writeLayoutSheet(f, result); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummarySheet(f, result); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeAttemptsSheet(f, result); err != nil {
		f.Close()
		return nil, err
	}

	index, err := f.GetSheetIndex(constants.XLSXSheetName)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(index)
	return f, nil
}

func writeLayoutSheet(f *excelize.File, result types.EvolutionResult) error {
	sheet := constants.XLSXSheetName

	// Write header
	for i, col := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	// Write genes
	for i, g := range Genes(result) {
		rowNum := i + 2
		values := []interface{}{g.Index, g.X, g.Y, g.Radius, string(g.PlantType), g.VarietyID, g.VarietyName}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, rowNum)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write gene %d: %w", g.Index, err)
			}
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result types.EvolutionResult) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][2]interface{}{
		{"run_id", result.RunID},
		{"outcome", string(result.Outcome)},
		{"converged", result.Converged()},
		{"fitness", result.Fitness},
		{"penalty", result.Penalty},
		{"attempt", result.Attempt},
		{"max_attempts", result.MaxAttempts},
		{"seed", result.Seed},
		{"elapsed_seconds", result.Elapsed.Seconds()},
		{"domain_type", result.Domain.Type},
	}

	params := make([]string, 0, len(result.Domain.Params))
	for name := range result.Domain.Params {
		params = append(params, name)
	}
	sort.Strings(params)
	for _, name := range params {
		rows = append(rows, [2]interface{}{"domain." + name, result.Domain.Params[name]})
	}

	for i, row := range rows {
		for j, v := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue(SheetSummary, cell, v); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}
		}
	}
	return nil
}

func writeAttemptsSheet(f *excelize.File, result types.EvolutionResult) error {
	if _, err := f.NewSheet(SheetAttempts); err != nil {
		return fmt.Errorf("failed to create attempts sheet: %w", err)
	}

	header := []interface{}{"attempt", "generations", "best_fitness", "penalty", "valid", "failed_stage", "elapsed_seconds"}
	for j, v := range header {
		cell, _ := excelize.CoordinatesToCellName(j+1, 1)
		if err := f.SetCellValue(SheetAttempts, cell, v); err != nil {
			return fmt.Errorf("failed to write attempts header: %w", err)
		}
	}

	for i, a := range result.Attempts {
		values := []interface{}{a.Attempt, a.Generations, a.BestFitness, a.Penalty, a.Valid, a.FailedStage, a.Elapsed.Seconds()}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(SheetAttempts, cell, v); err != nil {
				return fmt.Errorf("failed to write attempt %d: %w", a.Attempt, err)
			}
		}
	}
	return nil
}
