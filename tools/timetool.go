package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CurrentTimeTool reports the current time in a named IANA timezone.
type CurrentTimeTool struct {
	now func() time.Time
}

// NewCurrentTimeTool creates a CurrentTimeTool.
func NewCurrentTimeTool() *CurrentTimeTool {
	return &CurrentTimeTool{now: time.Now}
}

func (t *CurrentTimeTool) Name() string {
	return "get_current_time"
}

func (t *CurrentTimeTool) Description() string {
	return "Get the current time in a specified timezone. " +
		"Input is an IANA timezone name such as `America/New_York`, `Europe/London` or `Asia/Tokyo`. " +
		"An empty input means UTC."
}

func (t *CurrentTimeTool) Call(ctx context.Context, input string) (string, error) {
	name := strings.TrimSpace(input)
	if name == "" {
		name = "UTC"
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return "", fmt.Errorf("failed to get current time: unknown timezone %q", name)
	}

	now := t.now().In(loc)
	return fmt.Sprintf("Timezone: %s\nDatetime: %s\nFormatted: %s\nUnix timestamp: %d",
		name, now.Format(time.RFC3339), now.Format("2006-01-02 15:04:05 MST"), now.Unix()), nil
}
