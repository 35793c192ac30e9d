package execution

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	copilot "github.com/github/copilot-sdk/go"
)

// CopilotEngine integrates with GitHub Copilot SDK
type CopilotEngine struct {
	defaultModelID string

	client copilotClient

	startOnce sync.Once
	startErr  error

	workspacesMu sync.Mutex
	workspaces   []string // scratch directories to clean up at Shutdown
}

// CopilotEngineBuilder builds a CopilotEngine with options
type CopilotEngineBuilder struct {
	engine *CopilotEngine
}

type CopilotEngineBuilderOptions struct {
	NewCopilotClient func(clientOptions *copilot.ClientOptions) copilotClient
}

// NewCopilotEngineBuilder creates a builder for CopilotEngine
//   - defaultModelID - used when a request does not name a model. Can be blank, which means the copilot
//     CLI will choose its own fallback model.
func NewCopilotEngineBuilder(defaultModelID string, options *CopilotEngineBuilderOptions) *CopilotEngineBuilder {
	var client copilotClient

	copilotOptions := &copilot.ClientOptions{
		LogLevel:  "error",
		AutoStart: copilot.Bool(false),
	}

	if options == nil || options.NewCopilotClient == nil {
		client = newCopilotClient(copilotOptions)
	} else {
		client = options.NewCopilotClient(copilotOptions)
	}

	builder := &CopilotEngineBuilder{
		engine: &CopilotEngine{
			defaultModelID: defaultModelID,
		},
	}

	builder.engine.client = client
	return builder
}

func (b *CopilotEngineBuilder) Build() *CopilotEngine {
	return b.engine
}

// Initialize checks the context; the client is started lazily by Complete.
func (e *CopilotEngine) Initialize(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Complete sends the prompt to a fresh Copilot session and waits for the reply.
// Session failures are reported in the response, not as an error.
func (e *CopilotEngine) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil req was passed to CopilotEngine.Complete")
	}
	if req.Timeout <= 0 {
		return nil, fmt.Errorf("positive Timeout is required")
	}

	e.startOnce.Do(func() {
		e.startErr = e.client.Start(ctx)
	})
	if e.startErr != nil {
		return nil, fmt.Errorf("copilot failed to start: %w", e.startErr)
	}

	modelID := e.defaultModelID
	if req.ModelID != "" {
		modelID = req.ModelID
	}
	if req.Temperature != 0 || req.MaxTokens != 0 {
		slog.Debug("copilot sessions choose their own sampling; temperature and max_tokens are not forwarded",
			"temperature", req.Temperature, "max_tokens", req.MaxTokens)
	}

	workspaceDir, err := e.scratchDir()
	if err != nil {
		return nil, err
	}

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	session, err := e.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               modelID,
		OnPermissionRequest: denyAllTools,
		WorkingDirectory:    workspaceDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	collector := NewSessionEventsCollector()

	unsubscribe := session.On(collector.On)
	defer unsubscribe()

	unsubscribe = session.On(logSessionEvent)
	defer unsubscribe()

	final, err := session.SendAndWait(ctx, copilot.MessageOptions{
		Prompt: composePrompt(req),
	})

	var errMsg string
	if err != nil {
		errMsg = err.Error()
	} else if collector.ErrorMessage() != "" {
		errMsg = collector.ErrorMessage()
	}

	text := collector.FinalMessage()
	if text == "" && final != nil && final.Data.Content != nil {
		text = *final.Data.Content
	}

	slog.Debug("copilot session finished", "session", session.SessionID(), "model", modelID, "error", errMsg)

	return &CompletionResponse{
		Text:       text,
		Events:     collector.SessionEvents(),
		ModelID:    modelID,
		DurationMs: time.Since(start).Milliseconds(),
		ErrorMsg:   errMsg,
		Success:    errMsg == "",
	}, nil
}

// Shutdown cleans up resources
func (e *CopilotEngine) Shutdown(ctx context.Context) error {
	if err := e.client.Stop(); err != nil {
		slog.Info("failed to stop client", "error", err)
	}

	workspaces := func() []string {
		e.workspacesMu.Lock()
		defer e.workspacesMu.Unlock()
		workspaces := e.workspaces
		e.workspaces = nil
		return workspaces
	}()

	for _, ws := range workspaces {
		if err := os.RemoveAll(ws); err != nil {
			slog.Warn("failed to cleanup scratch directory", "path", ws, "error", err)
		}
	}

	return nil
}

// scratchDir creates an empty working directory for a session so the agent
// never operates on the user's checkout.
func (e *CopilotEngine) scratchDir() (string, error) {
	dir, err := os.MkdirTemp("", "pulse-*")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	e.workspacesMu.Lock()
	e.workspaces = append(e.workspaces, dir)
	e.workspacesMu.Unlock()
	return dir, nil
}

// composePrompt folds the system instructions into the user message.
func composePrompt(req *CompletionRequest) string {
	if req.SystemPrompt == "" {
		return req.Prompt
	}
	return req.SystemPrompt + "\n\n" + req.Prompt
}

// denyAllTools keeps the session to plain text generation.
func denyAllTools(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	return copilot.PermissionRequestResult{Kind: "denied-interactively-by-user"}, nil
}
