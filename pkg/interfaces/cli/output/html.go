package output

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/vsinha/linealloc/pkg/application/dto"
	"github.com/vsinha/linealloc/pkg/domain/entities"
)

//go:embed templates/*.html
var templateFS embed.FS

// PivotCell is one Line × Period entry of the utilization pivot
type PivotCell struct {
	Ratio float64 // first defined ratio in category order; NaN when none
	Band  entities.UtilizationBand
}

// Defined reports whether the cell has a ratio
func (c PivotCell) Defined() bool {
	return !math.IsNaN(c.Ratio)
}

// Pivot is the utilization table with lines as rows and periods as columns
type Pivot struct {
	Lines   []entities.Line
	Periods []entities.Period
	Cells   map[entities.Line]map[entities.Period]PivotCell
}

// Cell returns the cell for a line and period; missing cells are undefined
func (p *Pivot) Cell(line entities.Line, period entities.Period) PivotCell {
	if cell, ok := p.Cells[line][period]; ok {
		return cell
	}
	return PivotCell{Ratio: math.NaN(), Band: entities.Idle}
}

// PivotUtilization arranges utilization ratios as Line × Period. When a line
// has capacity in several categories of the same period the cell takes the
// first defined ratio, visiting categories in sorted order.
func PivotUtilization(ratios []entities.UtilizationRatio) *Pivot {
	sorted := slices.Clone(ratios)
	slices.SortStableFunc(sorted, func(a, b entities.UtilizationRatio) int {
		if a.Key().Less(b.Key()) {
			return -1
		}
		if b.Key().Less(a.Key()) {
			return 1
		}
		return 0
	})

	p := &Pivot{Cells: make(map[entities.Line]map[entities.Period]PivotCell)}
	for _, u := range sorted {
		if u.Line.IsFallback() {
			continue
		}
		if !slices.Contains(p.Lines, u.Line) {
			p.Lines = append(p.Lines, u.Line)
		}
		if !slices.Contains(p.Periods, u.Period) {
			p.Periods = append(p.Periods, u.Period)
		}
		if p.Cells[u.Line] == nil {
			p.Cells[u.Line] = make(map[entities.Period]PivotCell)
		}
		if cell, ok := p.Cells[u.Line][u.Period]; ok && cell.Defined() {
			continue
		}
		p.Cells[u.Line][u.Period] = PivotCell{Ratio: u.Ratio, Band: u.Band()}
	}
	slices.Sort(p.Lines)
	slices.Sort(p.Periods)
	return p
}

type htmlRow struct {
	Line  entities.Line
	Cells []htmlCell
}

type htmlCell struct {
	Text  string
	Class string
}

type htmlData struct {
	RunID       string
	Policy      string
	GeneratedAt string
	SolveTime   string
	Periods     []entities.Period
	Rows        []htmlRow
	Gaps        []entities.RedistributionGap
	GapMass     string
}

func bandClass(b entities.UtilizationBand) string {
	switch b {
	case entities.Overcommitted:
		return "over"
	case entities.Balanced:
		return "balanced"
	case entities.Slack:
		return "slack"
	default:
		return "idle"
	}
}

// RenderHTML renders the utilization pivot page
func RenderHTML(result *dto.AllocationResult, config Config) (string, error) {
	pivot := PivotUtilization(result.Utilization)

	data := htmlData{
		RunID:       result.RunID.String(),
		Policy:      result.Stats.Policy,
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		SolveTime:   config.SolveTime.String(),
		Periods:     pivot.Periods,
		Gaps:        result.Gaps,
		GapMass:     formatAmount(result.Stats.GapMass, 2),
	}
	for _, line := range pivot.Lines {
		row := htmlRow{Line: line}
		for _, period := range pivot.Periods {
			cell := pivot.Cell(line, period)
			text := "n/a"
			if cell.Defined() {
				text = formatAmount(cell.Ratio, 2)
			}
			row.Cells = append(row.Cells, htmlCell{Text: text, Class: bandClass(cell.Band)})
		}
		data.Rows = append(data.Rows, row)
	}

	tmpl, err := template.New("utilization.html").Funcs(template.FuncMap{
		"amount": func(v float64) string { return formatAmount(v, 2) },
	}).ParseFS(templateFS, "templates/utilization.html")
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func generateHTMLOutput(result *dto.AllocationResult, config Config) error {
	page, err := RenderHTML(result, config)
	if err != nil {
		return err
	}

	if config.OutputDir == "" {
		fmt.Fprint(config.stdout(), page)
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, HTMLFile)
	if err := os.WriteFile(filename, []byte(page), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 Utilization report saved to: %s\n", filename)
	}
	return nil
}
