package assistant

import (
	"context"
	"strings"

	analyzer_models "github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/meysamhadeli/patchpilot/project_context"
	context_models "github.com/meysamhadeli/patchpilot/project_context/models"
	"github.com/meysamhadeli/patchpilot/providers"
	provider_models "github.com/meysamhadeli/patchpilot/providers/models"
	"github.com/meysamhadeli/patchpilot/session"
	"github.com/meysamhadeli/patchpilot/storage/models"
	"github.com/rs/zerolog"
)

const conversationPrompt = "You are PatchPilot, an AI coding companion. Answer programming questions clearly, with code examples where they help."

// Reply is the answer to one user message.
type Reply struct {
	ChatID    string
	Content   string
	Actions   []context_models.Action
	Intent    context_models.Intent
	BasicMode bool
	// Committed is false when the chat changed while the answer was being produced.
	Committed bool
}

// Service answers user messages against the current chat, using the backend when it is
// reachable and the built-in templates otherwise.
type Service struct {
	sessions *session.Manager
	builder  *project_context.Builder
	backend  *providers.Backend
	progress chan<- Progress
	logger   zerolog.Logger
}

// NewService wires the orchestration. backend may be nil, which keeps the service in basic mode.
// progress may be nil; when set it should be buffered.
func NewService(sessions *session.Manager, builder *project_context.Builder, backend *providers.Backend, progress chan<- Progress, logger zerolog.Logger) *Service {
	if builder == nil {
		builder = project_context.NewBuilder(nil)
	}
	return &Service{
		sessions: sessions,
		builder:  builder,
		backend:  backend,
		progress: progress,
		logger:   logger.With().Str("component", "assistant").Logger(),
	}
}

// Status probes the backend. Without a backend it reports unavailable.
func (s *Service) Status(ctx context.Context) provider_models.BackendStatus {
	if s.backend == nil {
		return provider_models.BackendStatus{Available: false, Models: []string{}, Error: "no backend configured"}
	}
	return s.backend.Status(ctx)
}

// Ask records userInput in the current chat and answers it. Only one Ask may be pending per chat.
func (s *Service) Ask(ctx context.Context, userInput string) (*Reply, error) {
	ticket, err := s.sessions.BeginRequest()
	if err != nil {
		return nil, err
	}

	chat, err := s.sessions.Chat(ticket.ChatID)
	if err != nil {
		s.sessions.CancelRequest(ticket)
		return nil, err
	}
	history := toHistory(chat.Messages)

	if err := s.sessions.AppendMessage(ctx, ticket.ChatID, models.Message{
		Type:    models.RoleUser,
		Kind:    models.KindText,
		Content: userInput,
	}); err != nil {
		s.sessions.CancelRequest(ticket)
		return nil, err
	}

	reply := s.answer(ctx, userInput, history, s.sessions.Files())
	reply.ChatID = ticket.ChatID

	message := models.Message{
		Type:      models.RoleAI,
		Kind:      models.KindText,
		Content:   reply.Content,
		Intent:    reply.Intent,
		BasicMode: reply.BasicMode,
	}
	if len(reply.Actions) > 0 {
		message.Kind = models.KindActions
		message.Actions = reply.Actions
	}

	committed, err := s.sessions.CompleteRequest(ctx, ticket, message)
	if err != nil {
		s.report(StepError, 0, err.Error(), "")
		return nil, err
	}
	reply.Committed = committed
	return reply, nil
}

func (s *Service) answer(ctx context.Context, userInput string, history []provider_models.Message, files []analyzer_models.File) *Reply {
	s.report(StepReading, 10, "Understanding your request...", "")

	intent := project_context.ClassifyIntent(userInput)
	backendUp := s.backend != nil && s.backend.Status(ctx).Available

	if len(files) == 0 {
		if backendUp {
			s.report(StepGenerating, 70, "Thinking...", "")
			content, err := s.backend.Chat(ctx, provider_models.ChatRequest{
				SystemPrompt: conversationPrompt,
				History:      lastMessages(history),
				UserInput:    userInput,
			})
			if err == nil && strings.TrimSpace(content) != "" {
				s.report(StepComplete, 100, "Response ready!", "")
				return &Reply{Content: content, Intent: intent}
			}
			s.logger.Warn().Err(err).Msg("conversation request failed, answering in basic mode")
		}
		response := project_context.NoFilesResponse(userInput)
		s.report(StepComplete, 100, "Response ready!", "")
		return &Reply{Content: response.Content, Actions: response.Actions, Intent: intent, BasicMode: true}
	}

	s.report(StepReading, 30, "Reading project files...", "")
	projectContext := s.builder.BuildContext(files)
	s.report(StepParsing, 50, "Analyzing code structure...", "")

	template := project_context.Respond(userInput, projectContext, intent)

	if backendUp {
		s.report(StepAnalyzing, 70, "AI processing with full context...", "")
		content, err := s.backend.Chat(ctx, project_context.BuildChatRequest(projectContext, history, userInput))
		if err == nil && strings.TrimSpace(content) != "" {
			s.report(StepGenerating, 90, "Preparing response...", "")
			s.report(StepComplete, 100, "Response ready!", "")
			return &Reply{Content: content, Actions: template.Actions, Intent: intent}
		}
		s.logger.Warn().Err(err).Int("files", len(files)).Msg("backend request failed, answering from templates")
	}

	s.report(StepGenerating, 90, "Preparing response...", "")
	s.report(StepComplete, 100, "Response ready!", "")
	return &Reply{Content: template.Content, Actions: template.Actions, Intent: intent, BasicMode: true}
}

// AnalyzeFile reviews one file of the current chat and records the review as a file-context message.
func (s *Service) AnalyzeFile(ctx context.Context, file analyzer_models.File) (*Reply, error) {
	ticket, err := s.sessions.BeginRequest()
	if err != nil {
		return nil, err
	}

	s.report(StepReading, 10, "Reading file...", file.Name)

	var analysis provider_models.CodeAnalysis
	if s.backend != nil {
		s.report(StepAnalyzing, 50, "Reviewing code...", file.Name)
		analysis = s.backend.AnalyzeCode(ctx, file.Content, file.Name)
	} else {
		analysis = project_context.FallbackAnalysis(file.Content, file.Name)
		analysis.BasicMode = true
	}

	s.report(StepComplete, 100, "Analysis ready!", file.Name)

	reply := &Reply{
		ChatID:    ticket.ChatID,
		Content:   analysis.Response,
		Intent:    context_models.IntentAnalysis,
		BasicMode: analysis.BasicMode,
	}

	committed, err := s.sessions.CompleteRequest(ctx, ticket, models.Message{
		Type:      models.RoleAI,
		Kind:      models.KindFileContext,
		Content:   analysis.Response,
		File:      &models.FileReference{FileID: file.ID, FileName: file.Name},
		Intent:    context_models.IntentAnalysis,
		BasicMode: analysis.BasicMode,
	})
	if err != nil {
		return nil, err
	}
	reply.Committed = committed
	return reply, nil
}

func toHistory(messages []models.Message) []provider_models.Message {
	history := make([]provider_models.Message, 0, len(messages))
	for _, message := range messages {
		role := "user"
		if message.Type == models.RoleAI {
			role = "assistant"
		}
		history = append(history, provider_models.Message{Role: role, Content: message.Content})
	}
	return history
}

func lastMessages(history []provider_models.Message) []provider_models.Message {
	if len(history) <= project_context.HistoryWindow {
		return history
	}
	return history[len(history)-project_context.HistoryWindow:]
}
