package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voiceast/voiceast/executor"
	"github.com/voiceast/voiceast/intent"
	"github.com/voiceast/voiceast/models"
	"github.com/voiceast/voiceast/store"
)

// Synthesizer turns a result message into base64 speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Transcriber converts a WAV payload into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, language string) (string, float64, error)
}

// queuedCommand is one utterance waiting its turn in the session queue.
type queuedCommand struct {
	models.Utterance
	audio  []byte
	vision bool
}

// Session owns one WebSocket connection. Commands are processed strictly
// one at a time in arrival order; a single writer goroutine owns all
// writes to the connection so events for command N always precede events
// for command N+1.
type Session struct {
	ID     string
	conn   *websocket.Conn
	logger *zap.Logger

	exec    *executor.Executor
	history *store.History
	tts     Synthesizer
	stt     Transcriber

	ttsTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	cmdCh  chan queuedCommand
	outCh  chan models.Event
	done   chan struct{}

	mu                 sync.Mutex
	conversationActive bool
	cameraOpen         bool
	lastActivity       time.Time
}

// NewSession wires a session around an upgraded connection and starts its
// worker and writer goroutines.
func NewSession(conn *websocket.Conn, exec *executor.Executor, history *store.History, tts Synthesizer, stt Transcriber, ttsTimeout time.Duration) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:           uuid.New().String(),
		conn:         conn,
		exec:         exec,
		history:      history,
		tts:          tts,
		stt:          stt,
		ttsTimeout:   ttsTimeout,
		ctx:          ctx,
		cancel:       cancel,
		cmdCh:        make(chan queuedCommand, 16),
		outCh:        make(chan models.Event, 32),
		done:         make(chan struct{}),
		lastActivity: time.Now(),
	}
	s.logger = zap.L().With(zap.String("session_id", s.ID))

	go s.writeLoop()
	go s.workLoop()
	return s
}

// Enqueue adds a command to the session's queue. When the queue is full
// the client is told to slow down instead of blocking the read loop.
func (s *Session) Enqueue(cmd queuedCommand) {
	s.touch()
	select {
	case s.cmdCh <- cmd:
	default:
		s.Send(models.ErrorEvent("Too many commands in flight, please wait."))
	}
}

// post queues an event for the writer goroutine, waiting for buffer space
// when the client is slow. Used for everything the session itself produces;
// a command's result events are never dropped, only delayed until the
// session closes.
func (s *Session) post(ev models.Event) {
	select {
	case s.outCh <- ev:
	case <-s.ctx.Done():
	}
}

// Send queues a best-effort push such as a monitor alert. Dropped when the
// outbound buffer is full so a slow or dead client never stalls the caller.
func (s *Session) Send(ev models.Event) {
	select {
	case s.outCh <- ev:
	case <-s.ctx.Done():
	default:
		s.logger.Warn("outbound buffer full, dropping event", zap.String("type", ev.Type))
	}
}

// ConversationActive reports whether the client has greeted and not yet
// said stop. The monitor only pushes alerts to active sessions.
func (s *Session) ConversationActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationActive
}

func (s *Session) setConversationActive(v bool) {
	s.mu.Lock()
	s.conversationActive = v
	s.mu.Unlock()
}

func (s *Session) cameraIsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraOpen
}

func (s *Session) setCameraOpen(v bool) {
	s.mu.Lock()
	s.cameraOpen = v
	s.mu.Unlock()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() {
	s.cancel()
	s.conn.Close()
}

// writeLoop is the only goroutine that writes to the connection.
func (s *Session) writeLoop() {
	for {
		select {
		case ev := <-s.outCh:
			if err := s.conn.WriteJSON(ev); err != nil {
				s.logger.Debug("write failed, closing session", zap.Error(err))
				s.cancel()
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// workLoop drains the command queue sequentially. A slow conversational
// command delays everything behind it; that is the contract.
func (s *Session) workLoop() {
	defer close(s.done)
	for {
		select {
		case cmd := <-s.cmdCh:
			s.process(cmd)
		case <-s.ctx.Done():
			return
		}
	}
}

// process runs one command end to end: classify, announce the intent,
// execute, synthesize speech, emit exactly one result, record history.
func (s *Session) process(cmd queuedCommand) {
	started := time.Now()
	s.post(models.Event{Type: models.EventProcessing, Text: cmd.Text})

	if len(cmd.audio) > 0 {
		text, ok := s.transcribe(cmd.audio, cmd.Language)
		if !ok {
			return
		}
		cmd.Text = text
	}

	lang := cmd.Language
	if lang == "" {
		lang = intent.DetectLanguage(cmd.Text)
	}

	match := intent.Classify(cmd.Text, lang)
	if cmd.vision {
		match.Intent = models.IntentAnalyzeImage
		match.Text = cmd.Text
	}

	path := intent.Route(match)
	conf := match.Confidence
	s.post(models.Event{
		Type:       models.EventIntent,
		Intent:     string(match.Intent),
		Confidence: &conf,
		Text:       cmd.Text,
	})
	s.logger.Debug("routing command",
		zap.String("intent", string(match.Intent)),
		zap.String("path", path.String()))

	image := cmd.Image
	if match.Intent == models.IntentAnalyzeImage && !cmd.vision && len(image) == 0 && !s.cameraIsOpen() {
		res := models.ExecutionResult{Success: false, Message: "The camera is not open. Say 'open camera' first."}
		s.deliver(match, res, lang, started)
		return
	}

	res := s.exec.Execute(s.ctx, models.Command{
		Match:     match,
		Language:  lang,
		Image:     image,
		Confirmed: match.Param("confirm") == "true",
	})

	if action, ok := res.Data["action"].(string); ok {
		switch action {
		case "open_camera":
			s.setCameraOpen(true)
		case "close_camera":
			s.setCameraOpen(false)
		}
	}

	s.speak(&res)
	s.deliver(match, res, lang, started)
}

// transcribe runs speech to text for an uploaded recording and echoes the
// transcription back before classification. A failed or empty
// transcription ends the command with an error event.
func (s *Session) transcribe(wav []byte, language string) (string, bool) {
	if s.stt == nil {
		s.post(models.ErrorEvent("Speech recognition is not configured."))
		return "", false
	}
	ctx, cancel := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancel()
	text, confidence, err := s.stt.Transcribe(ctx, wav, language)
	if err != nil {
		s.logger.Warn("transcription failed", zap.Error(err))
		s.post(models.ErrorEvent("I couldn't understand that recording."))
		return "", false
	}
	if text == "" {
		s.post(models.ErrorEvent("I didn't hear anything in that recording."))
		return "", false
	}
	conf := confidence
	s.post(models.Event{
		Type:       models.EventTranscription,
		Text:       text,
		Confidence: &conf,
		IsFinal:    true,
	})
	return text, true
}

// speak attaches synthesized audio to a result. Synthesis is strictly
// bounded; on timeout or error the result goes out text-only.
func (s *Session) speak(res *models.ExecutionResult) {
	if s.tts == nil || res.Message == "" {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.ttsTimeout)
	defer cancel()
	audio, err := s.tts.Synthesize(ctx, res.Message)
	if err != nil {
		s.logger.Debug("speech synthesis skipped", zap.Error(err))
		return
	}
	res.Audio = audio
}

// deliver emits the single result event for a command and records it.
func (s *Session) deliver(match models.IntentMatch, res models.ExecutionResult, lang string, started time.Time) {
	if match.Intent == models.IntentAnalyzeImage {
		s.post(models.VisionEvent(res.Success, res.Message, res.Audio))
	} else {
		s.post(models.ResultEvent(res, lang))
	}

	s.logger.Info("command dispatched",
		zap.String("intent", string(match.Intent)),
		zap.Bool("success", res.Success),
		zap.Duration("took", time.Since(started)))

	if s.history != nil {
		s.history.Append(s.ctx, models.HistoryEntry{
			Command:   match.Text,
			Intent:    string(match.Intent),
			Response:  res.Message,
			Success:   res.Success,
			Timestamp: time.Now(),
		})
	}
}
