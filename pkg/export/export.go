// Package export writes the best layout of a run for other tools: JSON with
// run metadata, CSV with one row per gene, or an XLSX workbook.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ishanwen-byte/plantevolve-go/internal/constants"
	"github.com/ishanwen-byte/plantevolve-go/internal/types"
	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
)

// ErrUnknownFormat is returned for formats other than json, csv and xlsx
var ErrUnknownFormat = errors.New("export: unknown format")

// Columns is the header of the tabular formats
var Columns = []string{"index", "x", "y", "radius", "plant_type", "variety_id", "variety_name"}

// Gene is one exported row
type Gene struct {
	Index       int              `json:"index"`
	X           float64          `json:"x"`
	Y           float64          `json:"y"`
	Radius      float64          `json:"radius"`
	PlantType   genome.PlantType `json:"plant_type"`
	VarietyID   int              `json:"variety_id"`
	VarietyName string           `json:"variety_name"`
}

// Document is the JSON export
type Document struct {
	RunID          string             `json:"run_id"`
	Outcome        types.Outcome      `json:"outcome"`
	Converged      bool               `json:"converged"`
	Fitness        float64            `json:"fitness"`
	Penalty        float64            `json:"penalty"`
	Attempt        int                `json:"attempt"`
	MaxAttempts    int                `json:"max_attempts"`
	Seed           int64              `json:"seed"`
	ElapsedSeconds float64            `json:"elapsed_seconds"`
	Domain         types.DomainConfig `json:"domain"`
	Genes          []Gene             `json:"genes"`
}

// Genes flattens the best individual of result into rows
func Genes(result types.EvolutionResult) []Gene {
	points := result.Best.Genes()
	rows := make([]Gene, len(points))
	for i, p := range points {
		rows[i] = Gene{
			Index:       i,
			X:           p.X,
			Y:           p.Y,
			Radius:      p.Radius,
			PlantType:   p.PlantType,
			VarietyID:   p.VarietyID,
			VarietyName: p.VarietyName,
		}
	}
	return rows
}

// NewDocument builds the JSON export of result
func NewDocument(result types.EvolutionResult) Document {
	return Document{
		RunID:          result.RunID,
		Outcome:        result.Outcome,
		Converged:      result.Converged(),
		Fitness:        result.Fitness,
		Penalty:        result.Penalty,
		Attempt:        result.Attempt,
		MaxAttempts:    result.MaxAttempts,
		Seed:           result.Seed,
		ElapsedSeconds: result.Elapsed.Seconds(),
		Domain:         result.Domain,
		Genes:          Genes(result),
	}
}

// Formats returns the supported format names
func Formats() []string {
	return []string{constants.FormatJSON, constants.FormatCSV, constants.FormatXLSX}
}

// Write encodes result to w in the given format
func Write(w io.Writer, format string, result types.EvolutionResult) error {
	switch strings.ToLower(format) {
	case constants.FormatJSON:
		return writeJSON(w, result)
	case constants.FormatCSV:
		return writeCSV(w, result)
	case constants.FormatXLSX:
		f, err := workbook(result)
		if err != nil {
			return err
		}
		defer f.Close()
		return f.Write(w)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteFiles writes one file per format named base.<format> into dir and
// returns the paths written
func WriteFiles(dir, base string, formats []string, result types.EvolutionResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if base == "" {
		base = constants.DefaultExport
	}

	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		format = strings.ToLower(format)
		path := filepath.Join(dir, base+"."+format)

		var err error
		if format == constants.FormatXLSX {
			err = WriteXLSX(path, result)
		} else {
			err = writeFile(path, format, result)
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path, format string, result types.EvolutionResult) error {
	// reject the format before creating an empty file
	switch format {
	case constants.FormatJSON, constants.FormatCSV:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, format, result); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func writeJSON(w io.Writer, result types.EvolutionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(result)); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, result types.EvolutionResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, g := range Genes(result) {
		record := []string{
			strconv.Itoa(g.Index),
			formatFloat(g.X),
			formatFloat(g.Y),
			formatFloat(g.Radius),
			string(g.PlantType),
			strconv.Itoa(g.VarietyID),
			g.VarietyName,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", g.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
