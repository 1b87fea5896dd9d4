package classifier

import (
	"context"

	copilot "github.com/github/copilot-sdk/go"
)

// copilotSession is the part of *copilot.Session a classification uses.
type copilotSession interface {
	On(handler copilot.SessionEventHandler) func()
	SendAndWait(ctx context.Context, options copilot.MessageOptions) (*copilot.SessionEvent, error)
}

// copilotClient is the part of *copilot.Client the backend uses. Tests swap
// in a fake through NewCopilot.
type copilotClient interface {
	Start(ctx context.Context) error
	Stop() error
	CreateSession(ctx context.Context, config *copilot.SessionConfig) (copilotSession, error)
}

// sdkClient narrows the session type returned by the SDK client.
type sdkClient struct {
	*copilot.Client
}

func newCopilotClient(opts *copilot.ClientOptions) copilotClient {
	return sdkClient{copilot.NewClient(opts)}
}

func (c sdkClient) CreateSession(ctx context.Context, config *copilot.SessionConfig) (copilotSession, error) {
	session, err := c.Client.CreateSession(ctx, config)
	if err != nil {
		return nil, err
	}
	return session, nil
}
