package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Alckxyz/nutritrack/internal/nutrition"
	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/jung-kurt/gofpdf"
)

// NutritionSource aggregates one day of meals into totals.
type NutritionSource interface {
	DailyTotals(ctx context.Context, userID, date string) (nutrition.Totals, error)
}

// Generator generates PDF/CSV reports
type Generator struct {
	nutritionSource NutritionSource
	logsStorage     storage.WorkoutLogsStorage
	weightsStorage  storage.WeightsStorage
}

// NewGenerator creates a new report generator
func NewGenerator(nutritionSource NutritionSource, logsStorage storage.WorkoutLogsStorage, weightsStorage storage.WeightsStorage) *Generator {
	return &Generator{
		nutritionSource: nutritionSource,
		logsStorage:     logsStorage,
		weightsStorage:  weightsStorage,
	}
}

// dayRow is one date of the reporting period with everything recorded on it.
type dayRow struct {
	Date     string
	Totals   nutrition.Totals
	WeightKg *float64
	Workouts []string
}

// GenerateReport generates a report and returns the data
func (g *Generator) GenerateReport(ctx context.Context, userID string, req CreateReportRequest) ([]byte, error) {
	rows, err := g.collectRows(ctx, userID, req.From, req.To)
	if err != nil {
		return nil, err
	}

	switch req.Format {
	case FormatPDF:
		return g.generatePDF(req, rows)
	case FormatCSV:
		return g.generateCSV(rows)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

// collectRows builds one row per date of the period, oldest first.
func (g *Generator) collectRows(ctx context.Context, userID, from, to string) ([]dayRow, error) {
	fromDate, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date: %w", err)
	}
	toDate, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date: %w", err)
	}

	weights, err := g.weightsStorage.ListWeights(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weights: %w", err)
	}
	weightByDate := make(map[string]float64, len(weights))
	for _, entry := range weights {
		weightByDate[entry.Date] = entry.WeightKg
	}

	logs, err := g.logsStorage.ListWorkoutLogs(ctx, userID, 1000, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workout logs: %w", err)
	}
	workoutsByDate := make(map[string][]string)
	for _, log := range logs {
		date := log.FinishedAt.Format("2006-01-02")
		if date < from || date > to {
			continue
		}
		workoutsByDate[date] = append(workoutsByDate[date], log.RoutineName)
	}

	var rows []dayRow
	for d := fromDate; !d.After(toDate); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")

		totals, err := g.nutritionSource.DailyTotals(ctx, userID, date)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate meals for %s: %w", date, err)
		}

		row := dayRow{Date: date, Totals: totals, Workouts: workoutsByDate[date]}
		if weight, ok := weightByDate[date]; ok {
			w := weight
			row.WeightKg = &w
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// generateCSV generates a CSV report
func (g *Generator) generateCSV(rows []dayRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "calories_kcal", "protein_g", "fat_g", "carbs_g", "fiber_g", "weight_kg", "workouts"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range rows {
		weight := ""
		if row.WeightKg != nil {
			weight = fmt.Sprintf("%.1f", *row.WeightKg)
		}

		record := []string{
			row.Date,
			fmt.Sprintf("%.0f", row.Totals.Calories),
			fmt.Sprintf("%.1f", row.Totals.ProteinG),
			fmt.Sprintf("%.1f", row.Totals.FatG),
			fmt.Sprintf("%.1f", row.Totals.CarbsG),
			fmt.Sprintf("%.1f", row.Totals.FiberG),
			weight,
			strings.Join(row.Workouts, "; "),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// generatePDF generates a PDF report
func (g *Generator) generatePDF(req CreateReportRequest, rows []dayRow) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 16)
	pdf.AddPage()

	pdf.Cell(0, 10, "Nutrition & Training Report")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", req.From, req.To))
	pdf.Ln(12)

	summary := calculateSummary(rows)

	pdf.SetFont("Arial", "", 14)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Days with meals logged: %d of %d", summary.DaysWithMeals, len(rows)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Average calories: %s kcal", formatFloat(summary.AvgCalories, 0)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Average protein: %s g", formatFloat(summary.AvgProtein, 1)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Weight change: %s", summary.WeightDelta))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Workouts finished: %d", summary.WorkoutCount))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 14)
	pdf.Cell(0, 8, "Recent days")
	pdf.Ln(8)

	drawRecentDaysTable(pdf, rows)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// Summary holds calculated summary statistics
type Summary struct {
	DaysWithMeals int
	AvgCalories   *float64
	AvgProtein    *float64
	WeightDelta   string
	WorkoutCount  int
}

func calculateSummary(rows []dayRow) Summary {
	var totalCalories, totalProtein float64
	var firstWeight, lastWeight *float64
	summary := Summary{}

	for _, row := range rows {
		if row.Totals.Calories > 0 || row.Totals.ProteinG > 0 {
			summary.DaysWithMeals++
			totalCalories += row.Totals.Calories
			totalProtein += row.Totals.ProteinG
		}
		if row.WeightKg != nil {
			if firstWeight == nil {
				firstWeight = row.WeightKg
			}
			lastWeight = row.WeightKg
		}
		summary.WorkoutCount += len(row.Workouts)
	}

	if summary.DaysWithMeals > 0 {
		avgCal := totalCalories / float64(summary.DaysWithMeals)
		avgProt := totalProtein / float64(summary.DaysWithMeals)
		summary.AvgCalories = &avgCal
		summary.AvgProtein = &avgProt
	}

	if firstWeight != nil && lastWeight != nil {
		summary.WeightDelta = fmt.Sprintf("%+.1f kg", *lastWeight-*firstWeight)
	} else {
		summary.WeightDelta = "no data"
	}

	return summary
}

// drawRecentDaysTable draws a table of the last days of the period
func drawRecentDaysTable(pdf *gofpdf.Fpdf, rows []dayRow) {
	// Limit to last 14 days
	recent := rows
	if len(rows) > 14 {
		recent = rows[len(rows)-14:]
	}

	pdf.SetFont("Arial", "", 8)

	pdf.CellFormat(25, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Kcal", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Protein", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Fat", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Carbs", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Weight", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Workouts", "1", 1, "C", false, 0, "")

	for _, row := range recent {
		pdf.CellFormat(25, 6, row.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.0f", row.Totals.Calories), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.1f", row.Totals.ProteinG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.1f", row.Totals.FatG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.1f", row.Totals.CarbsG), "1", 0, "C", false, 0, "")

		weight := ""
		if row.WeightKg != nil {
			weight = fmt.Sprintf("%.1f", *row.WeightKg)
		}
		pdf.CellFormat(20, 6, weight, "1", 0, "C", false, 0, "")

		workouts := strconv.Itoa(len(row.Workouts))
		if len(row.Workouts) == 0 {
			workouts = ""
		}
		pdf.CellFormat(40, 6, workouts, "1", 1, "C", false, 0, "")
	}
}

func formatFloat(val *float64, decimals int) string {
	if val == nil {
		return "no data"
	}
	return strconv.FormatFloat(*val, 'f', decimals, 64)
}
