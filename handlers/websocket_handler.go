package handlers

import (
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voiceast/voiceast/executor"
	"github.com/voiceast/voiceast/models"
	"github.com/voiceast/voiceast/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub tracks live sessions so the monitor can broadcast alerts.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

// Broadcast pushes an event to every session with an active conversation.
// Sends are best effort and never block the caller.
func (h *Hub) Broadcast(ev models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		if s.ConversationActive() {
			s.Send(ev)
		}
	}
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// WebSocketHandler upgrades connections and runs the per-session read loop.
type WebSocketHandler struct {
	hub        *Hub
	exec       *executor.Executor
	history    *store.History
	tts        Synthesizer
	stt        Transcriber
	ttsTimeout time.Duration
	logger     *zap.Logger
}

func NewWebSocketHandler(hub *Hub, exec *executor.Executor, history *store.History, tts Synthesizer, stt Transcriber, ttsTimeout time.Duration) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		exec:       exec,
		history:    history,
		tts:        tts,
		stt:        stt,
		ttsTimeout: ttsTimeout,
		logger:     zap.L().Named("websocket"),
	}
}

// ServeHTTP handles a client for the lifetime of its connection.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", zap.Error(err))
		return
	}

	session := NewSession(conn, h.exec, h.history, h.tts, h.stt, h.ttsTimeout)
	h.hub.add(session)
	session.logger.Info("session connected", zap.String("remote", r.RemoteAddr))

	defer func() {
		h.hub.remove(session.ID)
		session.Close()
		session.logger.Info("session closed")
	}()

	session.Send(models.Event{
		Type:    models.EventConnected,
		Message: "Connected to voice assistant. Send a greeting to start.",
	})

	for {
		var msg models.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				session.logger.Warn("read failed", zap.Error(err))
			}
			return
		}
		h.dispatch(session, msg)
	}
}

// dispatch routes one inbound message. Anything that executes a command
// goes through the session queue; control messages are answered inline
// through the same writer so ordering holds.
func (h *WebSocketHandler) dispatch(s *Session, msg models.ClientMessage) {
	switch msg.Type {
	case models.MsgGreeting:
		s.setConversationActive(true)
		s.touch()
		s.Enqueue(queuedCommand{Utterance: models.Utterance{Text: "hello", Language: msg.Language}})

	case models.MsgVoiceCommand:
		if msg.Text == "" {
			s.Send(models.ErrorEvent("Empty command."))
			return
		}
		var frame []byte
		if msg.Image != "" {
			decoded, err := base64.StdEncoding.DecodeString(msg.Image)
			if err != nil {
				s.Send(models.ErrorEvent("Invalid image payload."))
				return
			}
			frame = decoded
		}
		s.Enqueue(queuedCommand{Utterance: models.Utterance{Text: msg.Text, Language: msg.Language, Image: frame}})

	case models.MsgVoiceAudioFile:
		wav, err := base64.StdEncoding.DecodeString(msg.Audio)
		if err != nil || len(wav) == 0 {
			s.Send(models.ErrorEvent("Invalid audio payload."))
			return
		}
		s.Enqueue(queuedCommand{Utterance: models.Utterance{Language: msg.Language}, audio: wav})

	case models.MsgAnalyzeFrame:
		frame, err := base64.StdEncoding.DecodeString(msg.Image)
		if err != nil || len(frame) == 0 {
			s.Send(models.ErrorEvent("Invalid image payload."))
			return
		}
		question := msg.Text
		if question == "" {
			question = "What do you see?"
		}
		s.Enqueue(queuedCommand{Utterance: models.Utterance{Text: question, Language: msg.Language, Image: frame}, vision: true})

	case models.MsgPing:
		s.touch()
		s.Send(models.Event{Type: models.EventPong})

	case models.MsgStop:
		s.setConversationActive(false)
		s.Send(models.Event{Type: models.EventReady, Message: "Conversation paused. Send a greeting to resume."})

	default:
		s.Send(models.ErrorEvent("Unknown message type: " + msg.Type))
	}
}
