package classifier

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCopilotClient struct {
	startErr         error
	createSessionErr error
	session          *fakeSession

	startCalls int
	stopCalls  int
	lastConfig *copilot.SessionConfig
}

func (c *fakeCopilotClient) Start(context.Context) error {
	c.startCalls++
	return c.startErr
}

func (c *fakeCopilotClient) Stop() error {
	c.stopCalls++
	return nil
}

func (c *fakeCopilotClient) CreateSession(_ context.Context, config *copilot.SessionConfig) (copilotSession, error) {
	c.lastConfig = config
	if c.createSessionErr != nil {
		return nil, c.createSessionErr
	}
	return c.session, nil
}

type fakeSession struct {
	handlers []copilot.SessionEventHandler
	reply    string
	sendErr  error
	prompt   string
}

func (s *fakeSession) On(handler copilot.SessionEventHandler) func() {
	s.handlers = append(s.handlers, handler)
	return func() {}
}

func (s *fakeSession) SendAndWait(_ context.Context, opts copilot.MessageOptions) (*copilot.SessionEvent, error) {
	s.prompt = opts.Prompt
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	event := copilot.SessionEvent{Type: copilot.AssistantMessage, Data: copilot.Data{Content: &s.reply}}
	for _, h := range s.handlers {
		h(event)
	}
	return &event, nil
}

func newFakeCopilot(client *fakeCopilotClient) *Copilot {
	return NewCopilot("gpt-5", func(*copilot.ClientOptions) copilotClient { return client })
}

func TestCopilot_Complete(t *testing.T) {
	session := &fakeSession{reply: "Here you go:\n```json\n{\"tools\":[\"Anchor\"],\"reasoning\":\"Anchor program.\"}\n```"}
	client := &fakeCopilotClient{session: session}
	c := newFakeCopilot(client)

	got, err := NewToolDetector(c).DetectTools(context.Background(), "anchor init my-program")
	require.NoError(t, err)
	require.Equal(t, []string{"Anchor"}, got.Tools)

	require.Equal(t, "gpt-5", client.lastConfig.Model)
	require.Contains(t, session.prompt, "anchor init my-program")
	require.Contains(t, session.prompt, `"required": ["tools", "reasoning"]`)

	_, err = c.Complete(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, 1, client.startCalls)

	require.NoError(t, c.Stop())
	require.Equal(t, 1, client.stopCalls)
}

func TestCopilot_Errors(t *testing.T) {
	c := newFakeCopilot(&fakeCopilotClient{startErr: errors.New("no token")})
	_, err := c.Complete(context.Background(), Request{})
	require.ErrorContains(t, err, "copilot failed to start")

	c = newFakeCopilot(&fakeCopilotClient{createSessionErr: errors.New("quota")})
	_, err = c.Complete(context.Background(), Request{})
	require.ErrorContains(t, err, "failed to create session")

	c = newFakeCopilot(&fakeCopilotClient{session: &fakeSession{sendErr: errors.New("closed")}})
	_, err = c.Complete(context.Background(), Request{})
	require.ErrorContains(t, err, "copilot session")
}

func TestSessionToSlog(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	content := "hello"
	sessionToSlog(copilot.SessionEvent{Type: copilot.AssistantMessage, Data: copilot.Data{Content: &content}})
	assert.Zero(t, buf.Len())

	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	sessionToSlog(copilot.SessionEvent{Type: copilot.AssistantMessage, Data: copilot.Data{Content: &content}})
	assert.Contains(t, buf.String(), "content=hello")
}
