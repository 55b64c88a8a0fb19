package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ragchat/internal/models"
	"ragchat/internal/repositories"
)

// Token budget defaults. Tokens are estimated as characters divided by the
// divisor; no tokenizer dependency.
const (
	DefaultTokenBudget  = 3000
	DefaultTokenDivisor = 4
)

const defaultSystemPrompt = "You are a helpful assistant. Answer the user's questions clearly and concisely, using the conversation so far for context."

const translationSystemPromptFmt = "You are a translation assistant. Translate every user message into %s. Reply with the translation only, no explanations, unless the user explicitly asks about the translation."

const ragSystemPromptFmt = `You are a helpful assistant answering questions about a document collection.

Base your answer ONLY on the context below. If the context does not contain the answer, say so honestly instead of guessing.

Context:
%s`

const emptyContextInstruction = "No relevant context was found for this question. Tell the user that the document collection contains no information about their question, and suggest they rephrase or ask about something the collection covers."

// ChatCapability is the generation capability the conversation service needs
type ChatCapability interface {
	Invoke(ctx context.Context, messages []models.Message) (models.Message, error)
}

// ChunkRetriever is the retrieval capability of the RAG graph
type ChunkRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]*repositories.SearchResult, error)
}

// TurnResult is the outcome of one conversational turn. Degraded is true when
// the reply is an inline error message rather than a model response; the
// thread continues either way.
type TurnResult struct {
	ThreadID string
	Reply    models.Message
	Context  []models.RAGContextChunk
	Degraded bool
}

// ChatService runs conversational turns against per-thread memory. Two turn
// shapes share the same message contract: plain chat (optionally in
// translation mode) and retrieval-grounded chat.
type ChatService struct {
	llm          ChatCapability
	mu           sync.RWMutex
	retriever    ChunkRetriever
	checkpoints  repositories.CheckpointRepository
	logger       *log.Logger
	tokenBudget  int
	tokenDivisor int
	mintThreadID func() string
}

// NewChatService creates a conversation service. The retriever may be nil
// when RAG turns are not needed.
func NewChatService(llm ChatCapability, retriever ChunkRetriever, checkpoints repositories.CheckpointRepository, logger *log.Logger) *ChatService {
	return &ChatService{
		llm:          llm,
		retriever:    retriever,
		checkpoints:  checkpoints,
		logger:       logger,
		tokenBudget:  DefaultTokenBudget,
		tokenDivisor: DefaultTokenDivisor,
		mintThreadID: func() string { return uuid.New().String() },
	}
}

// SetRetriever swaps the retrieval capability, e.g. after an index rebuild
func (s *ChatService) SetRetriever(retriever ChunkRetriever) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retriever = retriever
}

func (s *ChatService) currentRetriever() ChunkRetriever {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retriever
}

// SetTokenBudget overrides the trimming budget. Divisor <= 0 keeps the
// default.
func (s *ChatService) SetTokenBudget(budget, divisor int) {
	if budget > 0 {
		s.tokenBudget = budget
	}
	if divisor > 0 {
		s.tokenDivisor = divisor
	}
}

// Chat runs one plain-chat turn. A fresh thread id is minted when none is
// supplied. Threads with a target language set run in translation mode.
func (s *ChatService) Chat(ctx context.Context, threadID, userText string) (*TurnResult, error) {
	threadID, thread, err := s.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	systemPrompt := defaultSystemPrompt
	if thread.TargetLanguage != "" {
		systemPrompt = fmt.Sprintf(translationSystemPromptFmt, thread.TargetLanguage)
	}

	userMsg := models.NewMessage(models.RoleUser, userText)
	messages := s.assemble(systemPrompt, thread.Messages, userMsg)

	reply, genErr := s.llm.Invoke(ctx, messages)
	result := &TurnResult{ThreadID: threadID}
	if genErr != nil {
		result.Reply = s.degradedReply(&GenerationError{Err: genErr})
		result.Degraded = true
	} else {
		result.Reply = reply
	}

	if err := s.checkpoints.AppendMessages(ctx, threadID, userMsg, result.Reply); err != nil {
		return nil, fmt.Errorf("failed to persist turn for thread %s: %w", threadID, err)
	}
	return result, nil
}

// Translate sets the thread's target language and runs a translation turn
func (s *ChatService) Translate(ctx context.Context, threadID, userText, targetLanguage string) (*TurnResult, error) {
	if strings.TrimSpace(targetLanguage) == "" {
		return nil, &ConfigurationError{Op: "translate", Err: fmt.Errorf("target language is required")}
	}
	threadID, _, err := s.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := s.checkpoints.SetTargetLanguage(ctx, threadID, targetLanguage); err != nil {
		return nil, fmt.Errorf("failed to set target language for thread %s: %w", threadID, err)
	}
	return s.Chat(ctx, threadID, userText)
}

// RAGChat runs one retrieval-grounded turn. The latest user message is the
// retrieval query; prior messages are history only. Retrieval and generation
// failures degrade to an inline assistant message; the thread continues.
func (s *ChatService) RAGChat(ctx context.Context, threadID, userText string, topK int) (*TurnResult, error) {
	retriever := s.currentRetriever()
	if retriever == nil {
		return nil, &ConfigurationError{Op: "rag chat", Err: fmt.Errorf("no retriever configured")}
	}

	threadID, thread, err := s.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	userMsg := models.NewMessage(models.RoleUser, userText)
	result := &TurnResult{ThreadID: threadID}

	chunks, retErr := retriever.Retrieve(ctx, userText, topK)
	if retErr != nil {
		result.Reply = s.degradedReply(retErr)
		result.Degraded = true
		if err := s.checkpoints.AppendMessages(ctx, threadID, userMsg, result.Reply); err != nil {
			return nil, fmt.Errorf("failed to persist turn for thread %s: %w", threadID, err)
		}
		return result, nil
	}

	systemPrompt := fmt.Sprintf(ragSystemPromptFmt, formatContext(chunks))
	messages := s.assemble(systemPrompt, thread.Messages, userMsg)

	reply, genErr := s.llm.Invoke(ctx, messages)
	if genErr != nil {
		result.Reply = s.degradedReply(&GenerationError{Err: genErr})
		result.Degraded = true
	} else {
		result.Reply = reply
		result.Context = contextChunks(chunks)
	}

	if err := s.checkpoints.AppendMessages(ctx, threadID, userMsg, result.Reply); err != nil {
		return nil, fmt.Errorf("failed to persist turn for thread %s: %w", threadID, err)
	}
	return result, nil
}

// loadThread resolves the thread id, minting one when absent, and returns the
// stored thread. An unknown id yields an empty thread.
func (s *ChatService) loadThread(ctx context.Context, threadID string) (string, *models.Thread, error) {
	if threadID == "" {
		threadID = s.mintThreadID()
		s.logger.Printf("Minted new thread %s", threadID)
	}
	thread, err := s.checkpoints.GetThread(ctx, threadID)
	if err != nil {
		if repositories.IsThreadNotFound(err) {
			return threadID, &models.Thread{ID: threadID}, nil
		}
		return "", nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}
	return threadID, thread, nil
}

// assemble builds the model input: system prompt, trimmed history, current
// user message
func (s *ChatService) assemble(systemPrompt string, history []models.Message, userMsg models.Message) []models.Message {
	messages := make([]models.Message, 0, len(history)+2)
	messages = append(messages, models.NewMessage(models.RoleSystem, systemPrompt))
	messages = append(messages, history...)
	messages = append(messages, userMsg)
	return s.trim(messages)
}

// trim drops and truncates history so the estimated token count fits the
// budget. The system message and the most recent messages are kept; the
// oldest retained non-system message may be truncated rather than dropped
// whole.
func (s *ChatService) trim(messages []models.Message) []models.Message {
	budgetChars := s.tokenBudget * s.tokenDivisor

	total := 0
	for _, m := range messages {
		total += len(m.Content.AsText())
	}
	if total <= budgetChars {
		return messages
	}

	var system *models.Message
	rest := messages
	if len(messages) > 0 && messages[0].Role == models.RoleSystem {
		system = &messages[0]
		rest = messages[1:]
		budgetChars -= len(system.Content.AsText())
	}

	// Walk backwards keeping the newest messages that fit
	kept := make([]models.Message, 0, len(rest))
	used := 0
	for i := len(rest) - 1; i >= 0; i-- {
		text := rest[i].Content.AsText()
		if used+len(text) > budgetChars {
			remaining := budgetChars - used
			// keep the tail of the oldest retained message when a useful
			// amount of it still fits
			if remaining > 50 {
				truncated := models.NewMessage(rest[i].Role, text[len(text)-remaining:])
				kept = append(kept, truncated)
			}
			break
		}
		kept = append(kept, rest[i])
		used += len(text)
	}

	// kept is newest-first; reverse it
	out := make([]models.Message, 0, len(kept)+1)
	if system != nil {
		out = append(out, *system)
	}
	for i := len(kept) - 1; i >= 0; i-- {
		out = append(out, kept[i])
	}

	s.logger.Printf("Trimmed history from %d to %d messages", len(messages), len(out))
	return out
}

// degradedReply turns a turn failure into an inline assistant message
func (s *ChatService) degradedReply(err error) models.Message {
	s.logger.Printf("Turn degraded: %v", err)
	return models.NewMessage(models.RoleAssistant,
		fmt.Sprintf("I ran into a problem answering that: %v. Please try again.", err))
}

// formatContext renders retrieved chunks for the grounded system prompt
func formatContext(chunks []*repositories.SearchResult) string {
	if len(chunks) == 0 {
		return emptyContextInstruction
	}
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		source := "unknown"
		if s, ok := chunk.Metadata["source"].(string); ok && s != "" {
			source = s
		}
		parts = append(parts, fmt.Sprintf("SOURCE: %s\n%s", source, chunk.Text))
	}
	return strings.Join(parts, "\n\n")
}

// contextChunks converts search results into response DTOs
func contextChunks(chunks []*repositories.SearchResult) []models.RAGContextChunk {
	out := make([]models.RAGContextChunk, 0, len(chunks))
	for _, chunk := range chunks {
		source := "unknown"
		if s, ok := chunk.Metadata["source"].(string); ok && s != "" {
			source = s
		}
		out = append(out, models.RAGContextChunk{
			Text:     chunk.Text,
			Source:   source,
			Score:    chunk.Score,
			Metadata: chunk.Metadata,
		})
	}
	return out
}
