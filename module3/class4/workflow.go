// Package main implements a customer support email triage workflow:
// incoming emails are classified by intent and urgency, routed through
// documentation search or bug tracking, drafted into a reply, and either
// sent directly or held for human review.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
)

// EmailClassification is the triage result for one email.
type EmailClassification struct {
	Intent  string `json:"intent"`  // question, bug, billing, feature, complex
	Urgency string `json:"urgency"` // low, medium, high, critical
	Topic   string `json:"topic"`
	Summary string `json:"summary"`
}

// EmailAgentState is the shared workflow state.
type EmailAgentState struct {
	EmailContent string `json:"email_content"`
	SenderEmail  string `json:"sender_email"`
	EmailID      string `json:"email_id"`

	Classification  *EmailClassification `json:"classification,omitempty"`
	SearchResults   []string             `json:"search_results,omitempty"`
	CustomerHistory map[string]string    `json:"customer_history,omitempty"`
	DraftResponse   string               `json:"draft_response,omitempty"`

	// Trace is an append-only log of workflow steps.
	Trace []string `json:"trace,omitempty"`
}

func (s EmailAgentState) traced(step string) EmailAgentState {
	s.Trace = append(s.Trace, fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), step))
	return s
}

var htmlPolicy = bluemonday.UGCPolicy()

// emailBodyText flattens an HTML email body to plain text. Plain text
// bodies pass through unchanged.
func emailBodyText(content string) string {
	if !strings.Contains(content, "<") || !strings.Contains(content, ">") {
		return content
	}

	sanitized := htmlPolicy.Sanitize(content)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitized))
	if err != nil {
		return sanitized
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// classifyEmail determines intent, urgency and the next workflow node by
// keyword matching on the email body.
func classifyEmail(content string) (EmailClassification, string) {
	lower := strings.ToLower(content)

	var intent, next string
	switch {
	case containsAny(lower, "bug", "crash", "error"):
		intent, next = "bug", "bug_tracking"
	case containsAny(lower, "billing", "charged", "payment"):
		intent, next = "billing", "draft_response"
	case containsAny(lower, "feature", "add", "request"):
		intent, next = "feature", "draft_response"
	case containsAny(lower, "how", "?"):
		intent, next = "question", "search_documentation"
	default:
		intent, next = "complex", "draft_response"
	}

	urgency := "medium"
	switch {
	case containsAny(lower, "urgent", "asap", "critical"):
		urgency = "critical"
	case containsAny(lower, "important", "soon"):
		urgency = "high"
	}

	summary := content
	if runes := []rune(summary); len(runes) > 100 {
		summary = string(runes[:100])
	}
	return EmailClassification{
		Intent:  intent,
		Urgency: urgency,
		Topic:   "customer_support",
		Summary: summary,
	}, next
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// draftReply builds the response text for a classified email.
func draftReply(state EmailAgentState) string {
	classification := state.Classification

	var draft string
	switch {
	case classification.Intent == "question" && len(state.SearchResults) > 0:
		results := state.SearchResults
		if len(results) > 2 {
			results = results[:2]
		}
		bullets := make([]string, len(results))
		for i, r := range results {
			bullets[i] = "• " + r
		}
		draft = "Thank you for contacting us!\n\n" +
			"Based on your question, here's what we found:\n\n" +
			strings.Join(bullets, "\n") +
			"\n\nLet us know if you need further assistance!"
	case classification.Intent == "bug":
		bugID := state.CustomerHistory["bug_id"]
		if bugID == "" {
			bugID = "UNKNOWN"
		}
		draft = "Thank you for reporting this issue.\n\n" +
			fmt.Sprintf("We've created ticket %s to track this bug. ", bugID) +
			"Our engineering team will investigate and keep you updated."
	case classification.Intent == "billing":
		draft = "We sincerely apologize for the billing issue.\n\n" +
			"I've escalated this to our billing team for immediate review. " +
			"You should receive a resolution within 24 hours."
	case classification.Intent == "feature":
		draft = "Thank you for your feature suggestion!\n\n" +
			"We've added your request to our product roadmap. " +
			"We'll notify you if this feature is implemented."
	default:
		draft = "Thank you for contacting us.\n\n" +
			"Your inquiry requires specialized attention. " +
			"A team member will respond within 24 hours."
	}
	return draft + "\n\nBest regards,\nCustomer Support Team"
}

// needsHumanReview is true for high priority or complex emails.
func needsHumanReview(c *EmailClassification) bool {
	return c.Urgency == "critical" || c.Urgency == "high" || c.Intent == "complex"
}

// buildEmailWorkflow assembles the triage graph.
func buildEmailWorkflow() (*graph.Runnable[EmailAgentState], error) {
	workflow := graph.NewStateGraph[EmailAgentState]()

	workflow.AddCommandNode("read_email", "parses the incoming email", func(_ context.Context, state EmailAgentState) (*graph.Command[EmailAgentState], error) {
		state = state.traced("Reading email " + state.EmailID)
		state.EmailContent = emailBodyText(state.EmailContent)
		log.Info("reading email %s from %s", state.EmailID, state.SenderEmail)
		return &graph.Command[EmailAgentState]{Update: state, Goto: "classify_intent"}, nil
	})

	workflow.AddCommandNode("classify_intent", "classifies intent and urgency", func(_ context.Context, state EmailAgentState) (*graph.Command[EmailAgentState], error) {
		state = state.traced("Classifying email intent")
		classification, next := classifyEmail(state.EmailContent)
		state.Classification = &classification
		log.Info("classification: %s (%s urgency), routing to %s", classification.Intent, classification.Urgency, next)
		return &graph.Command[EmailAgentState]{Update: state, Goto: next}, nil
	})

	workflow.AddNodeWithRetry("search_documentation", "searches the knowledge base", func(_ context.Context, state EmailAgentState) (EmailAgentState, error) {
		state = state.traced("Searching documentation")
		state.SearchResults = []string{
			"Password reset: Go to Settings > Security > Reset Password",
			"For account issues, contact support@example.com",
			"Password requirements: 8+ characters, 1 uppercase, 1 number",
		}
		log.Info("found %d relevant documents", len(state.SearchResults))
		return state, nil
	}, &graph.RetryConfig{MaxAttempts: 3, InitialDelay: time.Second})
	workflow.AddEdge("search_documentation", "draft_response")

	workflow.AddCommandNode("bug_tracking", "files a bug ticket", func(_ context.Context, state EmailAgentState) (*graph.Command[EmailAgentState], error) {
		state = state.traced("Creating bug ticket")
		id := state.EmailID
		if len(id) > 4 {
			id = id[len(id)-4:]
		}
		bugID := "BUG-" + id
		state.CustomerHistory = map[string]string{
			"bug_id":   bugID,
			"status":   "open",
			"priority": state.Classification.Urgency,
		}
		log.Info("created bug ticket %s", bugID)
		return &graph.Command[EmailAgentState]{Update: state, Goto: "draft_response"}, nil
	})

	workflow.AddCommandNode("draft_response", "drafts the reply email", func(_ context.Context, state EmailAgentState) (*graph.Command[EmailAgentState], error) {
		state = state.traced("Drafting response")
		state.DraftResponse = draftReply(state)

		next := "send_reply"
		if needsHumanReview(state.Classification) {
			next = "human_review"
			log.Info("routing to human review (high priority)")
		}
		return &graph.Command[EmailAgentState]{Update: state, Goto: next}, nil
	})

	workflow.AddCommandNode("human_review", "pauses for human approval", func(ctx context.Context, state EmailAgentState) (*graph.Command[EmailAgentState], error) {
		decision, err := graph.Interrupt(ctx, map[string]any{
			"email_id": state.EmailID,
			"draft":    state.DraftResponse,
		})
		if err != nil {
			return nil, err
		}
		state = state.traced(fmt.Sprintf("Human review decision: %v", decision))
		return &graph.Command[EmailAgentState]{Update: state, Goto: "send_reply"}, nil
	})

	workflow.AddCommandNode("send_reply", "sends the reply", func(_ context.Context, state EmailAgentState) (*graph.Command[EmailAgentState], error) {
		state = state.traced("Email sent successfully")
		log.Info("sending email to %s", state.SenderEmail)
		return &graph.Command[EmailAgentState]{Update: state, Goto: graph.END}, nil
	})

	workflow.SetEntryPoint("read_email")
	return workflow.Compile()
}
