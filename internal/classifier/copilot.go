package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	copilot "github.com/github/copilot-sdk/go"
)

// Copilot classifies through a GitHub Copilot session. Copilot has no
// structured-output mode, so the schema is appended to the instructions and
// the JSON object is cut out of the reply.
type Copilot struct {
	model  string
	client copilotClient

	startOnce sync.Once
	startErr  error
}

var _ Backend = (*Copilot)(nil)

// NewCopilot creates a Copilot backend. newClient may be nil.
func NewCopilot(model string, newClient func(*copilot.ClientOptions) copilotClient) *Copilot {
	if newClient == nil {
		newClient = newCopilotClient
	}
	return &Copilot{
		model: model,
		client: newClient(&copilot.ClientOptions{
			LogLevel:  "error",
			AutoStart: copilot.Bool(false),
		}),
	}
}

func (c *Copilot) Name() string { return EngineCopilot }

// Complete sends one message in a fresh session.
func (c *Copilot) Complete(ctx context.Context, req Request) (string, error) {
	// copilot's autostart misbehaves when triggered from several goroutines
	c.startOnce.Do(func() {
		c.startErr = c.client.Start(ctx)
	})
	if c.startErr != nil {
		return "", fmt.Errorf("copilot failed to start: %w", c.startErr)
	}

	ctx, cancel := context.WithTimeout(ctx, claudeTimeout)
	defer cancel()

	session, err := c.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               c.model,
		OnPermissionRequest: denyAllTools,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	var (
		mu    sync.Mutex
		parts []string
	)
	unsubscribe := session.On(func(event copilot.SessionEvent) {
		if event.Type == copilot.AssistantMessage && event.Data.Content != nil {
			mu.Lock()
			parts = append(parts, *event.Data.Content)
			mu.Unlock()
		}
	})
	defer unsubscribe()

	unsubscribe = session.On(sessionToSlog)
	defer unsubscribe()

	if _, err := session.SendAndWait(ctx, copilot.MessageOptions{Prompt: copilotPrompt(req)}); err != nil {
		return "", fmt.Errorf("copilot session: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	return extractJSONObject(strings.Join(parts, "")), nil
}

// Stop shuts the client down.
func (c *Copilot) Stop() error {
	return c.client.Stop()
}

func copilotPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString(req.Instructions)
	sb.WriteString("\n\nReply with a single JSON object matching this schema and nothing else:\n")
	sb.WriteString(req.Schema)
	sb.WriteString("\n\n--- RESPONSE TO CLASSIFY ---\n")
	sb.WriteString(req.Input)
	return sb.String()
}

// extractJSONObject strips prose and code fences around the outermost
// JSON object. Text without braces is returned unchanged.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func denyAllTools(copilot.PermissionRequest, copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	return copilot.PermissionRequestResult{Kind: "denied-interactively-by-user"}, nil
}

func sessionToSlog(event copilot.SessionEvent) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{"type", event.Type}
	attrs = addIf(attrs, "content", event.Data.Content)
	attrs = addIf(attrs, "toolName", event.Data.ToolName)
	attrs = addIf(attrs, "reasoningText", event.Data.ReasoningText)

	slog.Debug("Event received", attrs...)
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name, *v)
	}
	return attrs
}
