package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Rafi99769/ai-agent-development-course/log"
)

const defaultQuery = "Here is a list of smartphone sales data: [120, 135, 140, 155, 165]. " +
	"Analyze it and provide detailed basic statistics (mean, median, mode) " +
	"and also identify if there is any sales trend."

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Border(lipgloss.DoubleBorder()).
			Padding(0, 2)

	stepStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// renderReportHTML converts the final markdown report to an HTML document.
func renderReportHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	return markdown.Render(doc, renderer)
}

func main() {
	query := defaultQuery
	if len(os.Args) > 1 {
		query = strings.Join(os.Args[1:], " ")
	}

	model, err := openai.New(
		openai.WithToken(os.Getenv("OPENAI_API_KEY")),
		openai.WithModel(getEnv("OPENAI_MODEL", "gpt-4o-mini")),
		openai.WithBaseURL(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")),
	)
	if err != nil {
		log.Error("failed to create model: %v", err)
		os.Exit(1)
	}

	teams, err := buildResearchTeams(model)
	if err != nil {
		log.Error("failed to build teams: %v", err)
		os.Exit(1)
	}

	fmt.Println(bannerStyle.Render("Hierarchical Research Teams"))
	fmt.Println()

	ctx := context.Background()
	initial := map[string]any{
		"messages": []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, query),
		},
	}

	var final map[string]any
	for event := range teams.Stream(ctx, initial, nil) {
		if event.Err != nil {
			log.Error("workflow failed: %v", event.Err)
			os.Exit(1)
		}
		messages, _ := event.State["messages"].([]llms.MessageContent)
		if len(messages) == 0 {
			continue
		}
		fmt.Println(stepStyle.Render("----- " + event.NodeName + " -----"))
		last := messages[len(messages)-1]
		for _, part := range last.Parts {
			if text, ok := part.(llms.TextContent); ok {
				fmt.Println(text.Text)
			}
		}
		fmt.Println()
		final = event.State
	}

	messages, _ := final["messages"].([]llms.MessageContent)
	report := lastAIText(messages)
	if report == "" && len(messages) > 0 {
		for _, part := range messages[len(messages)-1].Parts {
			if text, ok := part.(llms.TextContent); ok {
				report = text.Text
			}
		}
	}
	if report == "" {
		log.Warn("no report produced")
		return
	}

	outPath := getEnv("REPORT_HTML", "report.html")
	if err := os.WriteFile(outPath, renderReportHTML(report), 0o644); err != nil {
		log.Error("failed to write report: %v", err)
		os.Exit(1)
	}
	log.Info("report written to %s", outPath)
}
