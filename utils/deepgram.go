package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	prerecorded "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/pkg/client/listen"
)

// DeepgramClient transcribes complete utterance recordings. The audio front
// end ships a finished WAV clip; streaming capture stays on the client side.
type DeepgramClient struct {
	api   *prerecorded.Client
	model string
}

// InitDeepgramClient builds the transcription collaborator. The SDK reads
// DEEPGRAM_API_KEY from the environment when apiKey is empty.
func InitDeepgramClient(apiKey, model string) *DeepgramClient {
	if model == "" {
		model = "nova-2"
	}

	c := listen.NewRESTWithDefaults()
	if apiKey != "" {
		c = listen.NewREST(apiKey, &interfaces.ClientOptions{})
	}

	log.Info("Using Deepgram prerecorded transcription, model: ", model)
	return &DeepgramClient{
		api:   prerecorded.New(c),
		model: model,
	}
}

// Transcribe converts WAV bytes into text plus the engine's confidence.
// Empty text with a nil error means no speech was detected.
func (d *DeepgramClient) Transcribe(ctx context.Context, wav []byte, language string) (string, float64, error) {
	if len(wav) == 0 {
		return "", 0, fmt.Errorf("transcribe: empty audio")
	}
	if language == "" {
		language = "en"
	}

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.model,
		Language:    language,
		SmartFormat: true,
		Punctuate:   true,
	}

	resp, err := d.api.FromStream(ctx, bytes.NewReader(wav), options)
	if err != nil {
		log.Error("Deepgram transcription failed: ", err)
		return "", 0, fmt.Errorf("deepgram transcription: %w", err)
	}

	if len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
		log.Warn("No transcription alternatives returned")
		return "", 0, nil
	}
	alt := resp.Results.Channels[0].Alternatives[0]
	transcript := strings.TrimSpace(alt.Transcript)
	log.Debug("Transcript: ", transcript)
	return transcript, alt.Confidence, nil
}
