// Package edge implements the TTS Synthesizer using the Microsoft Edge
// read-aloud service.
//
// The service speaks a websocket protocol: the client sends a speech.config
// message and an SSML message tagged with a request id, then receives binary
// frames whose payload (after a length-prefixed header containing
// "Path:audio") is MP3 data. A "turn.end" text frame closes the turn.
package edge

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bluehawana/totoyai/internal/config"
	"github.com/bluehawana/totoyai/internal/tts"
)

const (
	trustedClientToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	wsURL              = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	outputFormat       = "audio-24khz-48kbitrate-mono-mp3"
)

// defaultVoices maps ISO-639-1 language codes to Edge neural voice names.
// Both defaults are warm voices suited to young listeners.
var defaultVoices = map[string]string{
	"en": "en-US-JennyNeural",
	"sv": "sv-SE-HilleviNeural",
}

// Synthesizer implements tts.Synthesizer against the Edge read-aloud service.
type Synthesizer struct {
	voices  map[string]string
	timeout time.Duration
	dialer  *websocket.Dialer
}

// New creates an Edge synthesizer from config.
func New(cfg config.EdgeConfig) *Synthesizer {
	voices := make(map[string]string, len(defaultVoices))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	for k, v := range cfg.Voices {
		voices[k] = v
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Synthesizer{
		voices:  voices,
		timeout: timeout,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "edge" }

// Synthesize opens a websocket turn and streams the MP3 frames as they land.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.Stream, error) {
	if text == "" {
		return nil, &tts.SynthesisError{Backend: s.Name(), Err: fmt.Errorf("empty text for synthesis")}
	}

	voice := opts.Voice
	if voice == "" {
		voice = s.voices[opts.Language]
	}
	if voice == "" {
		voice = s.voices["en"]
	}

	connID := strings.ReplaceAll(uuid.NewString(), "-", "")
	url := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s", wsURL, trustedClientToken, connID)

	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, &tts.SynthesisError{Backend: s.Name(), Err: fmt.Errorf("connecting: %w", err)}
	}

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)

	if err := s.sendConfig(conn); err != nil {
		conn.Close()
		return nil, &tts.SynthesisError{Backend: s.Name(), Err: err}
	}

	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.sendSSML(conn, requestID, voice, text); err != nil {
		conn.Close()
		return nil, &tts.SynthesisError{Backend: s.Name(), Err: err}
	}

	slog.Debug("edge synthesize", "voice", voice, "language", opts.Language, "text_length", len(text))

	pr, pw := io.Pipe()
	go s.pump(conn, pw)

	return &tts.Stream{Audio: pr, ContentType: "audio/mpeg"}, nil
}

// Close is a no-op — connections are per-request.
func (s *Synthesizer) Close() error { return nil }

// pump reads websocket frames and writes audio payloads to the pipe until
// the service ends the turn.
func (s *Synthesizer) pump(conn *websocket.Conn, pw *io.PipeWriter) {
	defer conn.Close()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			pw.CloseWithError(fmt.Errorf("reading edge frame: %w", err))
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			audio, ok := audioPayload(data)
			if !ok {
				continue
			}
			if _, err := pw.Write(audio); err != nil {
				return
			}

		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				pw.Close()
				return
			}
		}
	}
}

// audioPayload extracts the audio bytes from a binary frame: a big-endian
// uint16 header length, the text header, then the payload. Frames whose
// header is not Path:audio are skipped.
func audioPayload(data []byte) ([]byte, bool) {
	if len(data) < 2 {
		return nil, false
	}
	headerLen := int(binary.BigEndian.Uint16(data[:2]))
	if len(data) < 2+headerLen {
		return nil, false
	}
	header := string(data[2 : 2+headerLen])
	if !strings.Contains(header, "Path:audio") {
		return nil, false
	}
	return data[2+headerLen:], true
}

func (s *Synthesizer) sendConfig(conn *websocket.Conn) error {
	cfg := map[string]any{
		"context": map[string]any{
			"synthesis": map[string]any{
				"audio": map[string]any{
					"metadataoptions": map[string]any{
						"sentenceBoundaryEnabled": "false",
						"wordBoundaryEnabled":     "false",
					},
					"outputFormat": outputFormat,
				},
			},
		},
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling speech config: %w", err)
	}

	msg := fmt.Sprintf("X-Timestamp:%s\r\nContent-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n%s",
		timestamp(), cfgJSON)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("sending speech config: %w", err)
	}
	return nil
}

func (s *Synthesizer) sendSSML(conn *websocket.Conn, requestID, voice, text string) error {
	ssml := fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'><voice name='%s'>%s</voice></speak>`,
		voice, escapeXML(text))

	msg := fmt.Sprintf("X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nX-Timestamp:%s\r\nPath:ssml\r\n\r\n%s",
		requestID, timestamp(), ssml)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("sending ssml: %w", err)
	}
	return nil
}

func timestamp() string {
	return time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
}

func escapeXML(text string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(text)
}
