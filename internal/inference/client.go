// Package inference wraps the single external call of the system: handing an
// audio payload or a text note to Gemini and getting back a structured
// transaction draft constrained to the ledger's closed category and type sets.
package inference

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dyuan/voiceledger/internal/aikey"
	"github.com/dyuan/voiceledger/internal/ledger"
)

// AudioPayload is the assembled recording to classify. MIMEType carries the
// encoder's actual output type, which differs between platforms.
type AudioPayload struct {
	Data     []byte
	MIMEType string
}

// Generator produces the raw model reply for one classification call.
// The indirection keeps the Gemini SDK out of tests.
type Generator interface {
	Generate(ctx context.Context, apiKey string, parts []*genai.Part) (string, error)
}

// Client runs classification calls. Each call re-resolves the credential,
// runs under the configured timeout, and parses the reply into a draft.
type Client struct {
	keys    *aikey.Resolver
	gen     Generator
	timeout time.Duration
	log     zerolog.Logger
}

// NewClient builds a client backed by the Gemini API.
func NewClient(keys *aikey.Resolver, model string, timeout time.Duration, log zerolog.Logger) *Client {
	return NewClientWithGenerator(keys, &geminiGenerator{model: model}, timeout, log)
}

// NewClientWithGenerator builds a client over an explicit generator.
func NewClientWithGenerator(keys *aikey.Resolver, gen Generator, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{keys: keys, gen: gen, timeout: timeout, log: log}
}

// ClassifyAudio classifies a finished recording. nowHint describes the
// current local date/time so the model can resolve relative date expressions.
func (c *Client) ClassifyAudio(ctx context.Context, audio AudioPayload, nowHint string) (ledger.Draft, error) {
	parts := []*genai.Part{
		{
			InlineData: &genai.Blob{
				MIMEType: audio.MIMEType,
				Data:     audio.Data,
			},
		},
		{Text: audioPrompt(nowHint)},
	}
	return c.classify(ctx, parts)
}

// ClassifyText classifies a typed transaction note, the fallback path when no
// recording is available.
func (c *Client) ClassifyText(ctx context.Context, note string, nowHint string) (ledger.Draft, error) {
	parts := []*genai.Part{
		{Text: textPrompt(note, nowHint)},
	}
	return c.classify(ctx, parts)
}

func (c *Client) classify(ctx context.Context, parts []*genai.Part) (ledger.Draft, error) {
	key, source := c.keys.Resolve()
	if key == "" {
		return ledger.Draft{}, ErrMissingCredential
	}
	c.log.Debug().Str("key_source", source).Msg("Resolved inference credential")

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := c.gen.Generate(ctx, key, parts)
	if err != nil {
		return ledger.Draft{}, &UpstreamError{Err: err}
	}

	draft, err := parseDraft(raw)
	if err != nil {
		return ledger.Draft{}, err
	}

	c.log.Info().
		Dur("duration", time.Since(start)).
		Str("category", string(draft.Category)).
		Str("type", string(draft.Type)).
		Msg("Classification succeeded")

	return draft, nil
}
