package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"voicebook/internal/llm"
	"voicebook/internal/models"
	"voicebook/internal/pdf"
)

var ErrSessionNotFound = errors.New("invalid session")

// fallback turn used whenever the extractor fails or returns garbage:
// the session must never be left without an assistant reply
const fallbackReply = "Internal reasoning error. Please continue."

// Extractor turns a conversation into a structured reply plus completion
// signal. Implemented by llm.Client, stubbed in tests.
type Extractor interface {
	Extract(ctx context.Context, system string, history []llm.Message) (*llm.Extraction, error)
}

type TurnResult struct {
	AssistantMessage string `json:"assistant_message"`
	Completed        bool   `json:"completed"`
	InvoiceURL       string `json:"invoice_url,omitempty"`
}

type SessionService interface {
	Start(store, product, details string) (sessionID, greeting string)
	HandleMessage(ctx context.Context, sessionID, text string) (*TurnResult, error)
	Get(sessionID string) (*models.BookingSession, bool)
}

type sessionState struct {
	mu   sync.Mutex
	data models.BookingSession
}

type sessionService struct {
	extractor Extractor
	invoices  pdf.Generator
	baseURL   string

	mu       sync.Mutex
	sessions map[string]*sessionState

	now func() time.Time
}

func NewSessionService(extractor Extractor, invoices pdf.Generator, baseURL string) SessionService {
	return &sessionService{
		extractor: extractor,
		invoices:  invoices,
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessions:  make(map[string]*sessionState),
		now:       time.Now,
	}
}

// Start allocates a session. The id keeps the human-readable store-N shape
// the frontend displays; the counter is the table size read under the table
// lock, and sessions are never removed, so minted ids stay unique.
func (s *sessionService) Start(store, product, details string) (string, string) {
	s.mu.Lock()
	id := fmt.Sprintf("%s-%d", strings.ReplaceAll(store, " ", "_"), len(s.sessions)+1)
	s.sessions[id] = &sessionState{data: models.BookingSession{
		ID:      id,
		Store:   store,
		Product: product,
		Details: details,
	}}
	s.mu.Unlock()

	log.Printf("[session][start] id=%s store=%q product=%q", id, store, product)
	greeting := fmt.Sprintf("Hello. I am contacting %s regarding %s. Let me begin.", store, product)
	return id, greeting
}

func (s *sessionService) Get(sessionID string) (*models.BookingSession, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	snapshot := sess.data
	snapshot.History = append([]models.ChatTurn(nil), sess.data.History...)
	return &snapshot, true
}

func (s *sessionService) HandleMessage(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	// record the user turn and snapshot the conversation; the extractor
	// call below must not run under the session lock
	sess.mu.Lock()
	sess.data.History = append(sess.data.History, models.ChatTurn{Role: models.RoleUser, Content: text})
	system := s.systemPrompt(&sess.data)
	history := make([]llm.Message, 0, len(sess.data.History))
	for _, turn := range sess.data.History {
		history = append(history, llm.Message{Role: string(turn.Role), Content: turn.Content})
	}
	sess.mu.Unlock()

	ext, err := s.extractor.Extract(ctx, system, history)
	if err != nil || ext == nil {
		log.Printf("[session][message] extractor failed id=%s: %v", sessionID, err)
		ext = &llm.Extraction{Reply: fallbackReply}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.data.History = append(sess.data.History, models.ChatTurn{Role: models.RoleAssistant, Content: ext.Reply})

	// later turns may refine an earlier guess
	if ext.AppointmentDate != "" {
		sess.data.AppointmentDate = ext.AppointmentDate
	}
	if ext.AppointmentTime != "" {
		sess.data.AppointmentTime = ext.AppointmentTime
	}

	// invoice is generated exactly once per session, on the first
	// completed turn; the flag never goes back to false
	if ext.Completed && !sess.data.InvoiceGenerated {
		sess.data.InvoiceGenerated = true
		filename, genErr := s.invoices.GenerateInvoice(pdf.InvoiceData{
			SessionID:       sess.data.ID,
			Store:           sess.data.Store,
			Product:         sess.data.Product,
			Details:         sess.data.Details,
			AppointmentDate: sess.data.AppointmentDate,
			AppointmentTime: sess.data.AppointmentTime,
			CreatedAt:       s.now(),
		})
		if genErr != nil {
			log.Printf("[session][invoice] generation failed id=%s: %v", sessionID, genErr)
		} else {
			sess.data.InvoiceURL = fmt.Sprintf("%s/invoices/%s", s.baseURL, filename)
			log.Printf("[session][invoice] created id=%s url=%s", sessionID, sess.data.InvoiceURL)
		}
	}

	return &TurnResult{
		AssistantMessage: ext.Reply,
		Completed:        ext.Completed,
		InvoiceURL:       sess.data.InvoiceURL,
	}, nil
}

func (s *sessionService) systemPrompt(sess *models.BookingSession) string {
	return fmt.Sprintf(`You are a professional booking assistant.

Context:
Store: %s
Product: %s
Details: %s
Today's date: %s

Respond ONLY in JSON:

{
  "reply": "assistant reply",
  "completed": true or false,
  "appointment_date": "YYYY-MM-DD or null",
  "appointment_time": "HH:MM or null"
}

Rules:
- When booking is confirmed, set completed=true.
- Always return valid JSON.`,
		sess.Store, sess.Product, sess.Details, s.now().Format("2006-01-02"))
}
