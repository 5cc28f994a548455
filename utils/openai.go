package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is the language-model collaborator: chat fallback, vision
// description, speech synthesis, and embeddings for the semantic fact index.
type OpenAIClient struct {
	client      *openai.Client
	chatModel   string
	visionModel string
	ttsModel    string
	ttsVoice    string
	embedModel  string
	logger      *zap.Logger
}

// NewOpenAIClient builds the collaborator. The API key may be empty; every
// call then fails fast with a useful error instead of a hung request.
func NewOpenAIClient(apiKey, chatModel, visionModel, ttsModel, ttsVoice, embedModel string) *OpenAIClient {
	return &OpenAIClient{
		client:      openai.NewClient(apiKey),
		chatModel:   chatModel,
		visionModel: visionModel,
		ttsModel:    ttsModel,
		ttsVoice:    ttsVoice,
		embedModel:  embedModel,
		logger:      zap.L().Named("openai"),
	}
}

const assistantSystemPrompt = "You are Prime, a concise voice assistant. " +
	"Answer in one or two short sentences, natural to speak aloud. " +
	"If the user writes in Hindi, answer in Hindi."

// Chat answers a conversational utterance. The caller bounds ctx; a timeout
// here is the session's "AI unavailable" case.
func (c *OpenAIClient) Chat(ctx context.Context, utterance string, facts []string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: assistantSystemPrompt},
	}
	if len(facts) > 0 {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Things the user asked you to remember:\n" + strings.Join(facts, "\n"),
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: utterance,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// DescribeImage answers a question about a JPEG frame with the vision model.
func (c *OpenAIClient) DescribeImage(ctx context.Context, image []byte, question string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("describe image: empty frame")
	}
	if question == "" {
		question = "Describe what you see in this image in one or two short sentences."
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.visionModel,
		MaxTokens: 300,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: question},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision completion: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Synthesize renders text to speech and returns base64 MP3 bytes. Failure
// degrades a reply to text-only, so callers treat errors as soft.
func (c *OpenAIClient) Synthesize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(c.ttsModel),
		Input: text,
		Voice: openai.SpeechVoice(c.ttsVoice),
	})
	if err != nil {
		return "", fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Close()
	raw, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("reading synthesized audio: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Embed vectorizes text for the semantic fact index.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("creating embedding: empty response")
	}
	return resp.Data[0].Embedding, nil
}
