package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// parseNumbers extracts floats from a free-form tool input such as
// "10, 20, 20, 30" or "[1 2 3]".
func parseNumbers(input string) ([]float64, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		switch r {
		case ' ', ',', ';', '\t', '\n', '[', ']', '(', ')':
			return true
		}
		return false
	})

	var numbers []float64
	for _, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		return nil, fmt.Errorf("no numbers found in input %q", input)
	}
	return numbers, nil
}

// StatisticsTool calculates mean, median and mode of a list of numbers.
type StatisticsTool struct{}

func (t *StatisticsTool) Name() string {
	return "basic_statistics"
}

func (t *StatisticsTool) Description() string {
	return "Calculates mean, median, and mode of a list of numbers. " +
		"Input is the numbers separated by commas or spaces."
}

func (t *StatisticsTool) Call(ctx context.Context, input string) (string, error) {
	numbers, err := parseNumbers(input)
	if err != nil {
		return fmt.Sprintf("Error calculating statistics: %v", err), nil
	}

	mean := 0.0
	for _, n := range numbers {
		mean += n
	}
	mean /= float64(len(numbers))

	sorted := append([]float64(nil), numbers...)
	sort.Float64s(sorted)
	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	// Mode is the first value in input order reaching the highest count.
	counts := make(map[float64]int, len(numbers))
	for _, n := range numbers {
		counts[n]++
	}
	mode := numbers[0]
	best := 0
	for _, n := range numbers {
		if counts[n] > best {
			best = counts[n]
			mode = n
		}
	}

	return fmt.Sprintf("Mean: %g, Median: %g, Mode: %g", mean, median, mode), nil
}

// TrendDetectionTool reports whether a series is strictly increasing,
// strictly decreasing, or neither.
type TrendDetectionTool struct{}

func (t *TrendDetectionTool) Name() string {
	return "trend_detection"
}

func (t *TrendDetectionTool) Description() string {
	return "Detects if the trend of a list of numbers is increasing, decreasing, or stable. " +
		"Input is the numbers separated by commas or spaces."
}

func (t *TrendDetectionTool) Call(ctx context.Context, input string) (string, error) {
	numbers, err := parseNumbers(input)
	if err != nil {
		return "", err
	}
	if len(numbers) < 2 {
		return "Not enough data to detect trend.", nil
	}

	increasing, decreasing := true, true
	for i := 1; i < len(numbers); i++ {
		if numbers[i-1] >= numbers[i] {
			increasing = false
		}
		if numbers[i-1] <= numbers[i] {
			decreasing = false
		}
	}

	switch {
	case increasing:
		return "Upward trend detected.", nil
	case decreasing:
		return "Downward trend detected.", nil
	default:
		return "No clear trend detected.", nil
	}
}

// SummarizeTool turns a long text into sentence-per-line bullet points.
type SummarizeTool struct{}

func (t *SummarizeTool) Name() string {
	return "summarize_points"
}

func (t *SummarizeTool) Description() string {
	return "Summarizes a long text into bullet points. Input is the text to summarize."
}

func (t *SummarizeTool) Call(ctx context.Context, input string) (string, error) {
	sentences := strings.Split(input, ".")
	bullets := make([]string, 0, len(sentences))
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s != "" {
			bullets = append(bullets, "- "+s)
		}
	}
	if len(bullets) == 0 {
		return "", fmt.Errorf("input text is empty")
	}
	return strings.Join(bullets, "\n"), nil
}

// ReportGenerationTool wraps bullet points into a simple market research
// report.
type ReportGenerationTool struct{}

func (t *ReportGenerationTool) Name() string {
	return "report_generation"
}

func (t *ReportGenerationTool) Description() string {
	return "Takes bullet points and generates a simple market research report. " +
		"Input is the bullet points, one per line."
}

func (t *ReportGenerationTool) Call(ctx context.Context, input string) (string, error) {
	body := strings.TrimSpace(input)
	if body == "" {
		return "", fmt.Errorf("no points given")
	}
	return "**Market Research Report**\n\n" + body + "\n\nEnd of Report.", nil
}
