package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// BarChartTool renders labeled values as a horizontal ASCII bar chart.
// Charts are plain text so the result lands directly in the conversation.
type BarChartTool struct {
	// Width is the length of the longest bar in characters. Zero means 40.
	Width int
}

func (t *BarChartTool) Name() string {
	return "bar_chart"
}

func (t *BarChartTool) Description() string {
	return "Render a horizontal bar chart from labeled values. " +
		"Input is one `label: value` pair per line, for example `Rock: 283.9`. " +
		"If you have completed all tasks after charting, respond with FINAL ANSWER."
}

func (t *BarChartTool) Call(ctx context.Context, input string) (string, error) {
	type entry struct {
		label string
		value float64
	}

	var entries []entry
	maxValue := 0.0
	maxLabel := 0
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := strings.LastIndex(line, ":")
		if idx < 0 {
			idx = strings.LastIndex(line, ",")
		}
		if idx < 0 {
			return "", fmt.Errorf("invalid chart line %q: expected `label: value`", line)
		}
		label := strings.TrimSpace(line[:idx])
		value, err := strconv.ParseFloat(strings.TrimSpace(line[idx+1:]), 64)
		if err != nil {
			return "", fmt.Errorf("invalid chart value in line %q: %w", line, err)
		}
		if value < 0 {
			return "", fmt.Errorf("negative values are not supported: %q", line)
		}
		entries = append(entries, entry{label: label, value: value})
		if value > maxValue {
			maxValue = value
		}
		if len(label) > maxLabel {
			maxLabel = len(label)
		}
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no chart data found in input")
	}

	width := t.Width
	if width <= 0 {
		width = 40
	}

	var sb strings.Builder
	for _, e := range entries {
		bar := 0
		if maxValue > 0 {
			bar = int(e.value / maxValue * float64(width))
		}
		if bar == 0 && e.value > 0 {
			bar = 1
		}
		sb.WriteString(fmt.Sprintf("%-*s | %s %g\n", maxLabel, e.label, strings.Repeat("█", bar), e.value))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
