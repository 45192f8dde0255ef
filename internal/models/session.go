package models

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is one entry of a session's conversation history.
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// BookingSession holds the accumulated state of one booking conversation.
// Sessions are never persisted: they live for the process lifetime only.
type BookingSession struct {
	ID               string     `json:"session_id"`
	Store            string     `json:"store"`
	Product          string     `json:"product"`
	Details          string     `json:"details"`
	History          []ChatTurn `json:"history"`
	InvoiceGenerated bool       `json:"invoice_generated"`
	InvoiceURL       string     `json:"invoice_url,omitempty"`
	AppointmentDate  string     `json:"appointment_date,omitempty"`
	AppointmentTime  string     `json:"appointment_time,omitempty"`
}

type StartSessionRequest struct {
	Store   string `json:"store" binding:"required"`
	Product string `json:"product" binding:"required"`
	Details string `json:"details"`
}

type MessageRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}
