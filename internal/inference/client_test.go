package inference

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dyuan/voiceledger/internal/aikey"
	"github.com/dyuan/voiceledger/internal/ledger"
)

type fakeGenerator struct {
	reply string
	err   error

	called      bool
	gotKey      string
	gotParts    []*genai.Part
	hadDeadline bool
}

func (f *fakeGenerator) Generate(ctx context.Context, apiKey string, parts []*genai.Part) (string, error) {
	f.called = true
	f.gotKey = apiKey
	f.gotParts = parts
	_, f.hadDeadline = ctx.Deadline()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func keyResolver(key string) *aikey.Resolver {
	return aikey.NewResolver(aikey.Probe{Label: "Test", Lookup: func() string { return key }})
}

func newTestClient(gen Generator, key string, timeout time.Duration) *Client {
	return NewClientWithGenerator(keyResolver(key), gen, timeout, zerolog.Nop())
}

func TestClassifyTextMissingCredential(t *testing.T) {
	gen := &fakeGenerator{reply: goodReply}
	client := newTestClient(gen, "", 0)

	_, err := client.ClassifyText(context.Background(), "lunch 30", "hint")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("got %v, want ErrMissingCredential", err)
	}
	if gen.called {
		t.Error("generator must not be called without a credential")
	}
}

func TestClassifyTextSuccess(t *testing.T) {
	gen := &fakeGenerator{reply: goodReply}
	client := newTestClient(gen, "test-key", time.Minute)

	draft, err := client.ClassifyText(context.Background(), "lunch 30 yuan", "Monday, May 6, 2024 18:30")
	if err != nil {
		t.Fatalf("ClassifyText: %v", err)
	}
	if draft.Category != ledger.CategoryFood {
		t.Errorf("category = %q, want 餐饮", draft.Category)
	}
	if gen.gotKey != "test-key" {
		t.Errorf("generator saw key %q", gen.gotKey)
	}
	if !gen.hadDeadline {
		t.Error("timeout must be applied to the call context")
	}
	if len(gen.gotParts) != 1 || gen.gotParts[0].Text == "" {
		t.Fatal("text classification must send a single text part")
	}
	if !strings.Contains(gen.gotParts[0].Text, "lunch 30 yuan") {
		t.Error("prompt does not carry the note")
	}
	if !strings.Contains(gen.gotParts[0].Text, "May 6, 2024") {
		t.Error("prompt does not carry the date hint")
	}
}

func TestClassifyAudioSendsInlineData(t *testing.T) {
	gen := &fakeGenerator{reply: goodReply}
	client := newTestClient(gen, "test-key", 0)

	audio := AudioPayload{Data: []byte{0x1a, 0x45, 0xdf, 0xa3}, MIMEType: "audio/webm"}
	if _, err := client.ClassifyAudio(context.Background(), audio, "hint"); err != nil {
		t.Fatalf("ClassifyAudio: %v", err)
	}

	if len(gen.gotParts) != 2 {
		t.Fatalf("got %d parts, want audio blob plus prompt", len(gen.gotParts))
	}
	blob := gen.gotParts[0].InlineData
	if blob == nil {
		t.Fatal("first part must be the inline audio blob")
	}
	if blob.MIMEType != "audio/webm" {
		t.Errorf("blob mime = %q, want the payload's type", blob.MIMEType)
	}
	if len(blob.Data) != 4 {
		t.Errorf("blob carries %d bytes, want 4", len(blob.Data))
	}
	if gen.gotParts[1].Text == "" {
		t.Error("second part must be the instruction prompt")
	}
}

func TestClassifyWrapsUpstreamFailure(t *testing.T) {
	cause := errors.New("rpc error: deadline exceeded")
	gen := &fakeGenerator{err: cause}
	client := newTestClient(gen, "test-key", 0)

	_, err := client.ClassifyText(context.Background(), "note", "hint")

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("got %v, want an UpstreamError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("upstream error must unwrap to the original cause")
	}
	if upstream.CredentialHint() {
		t.Error("a timeout is not a credential problem")
	}
}

func TestUpstreamCredentialHint(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"API key not valid. Please pass a valid API key.", true},
		{"googleapi: Error 403: permission denied", true},
		{"http 401 unauthorized", true},
		{"connection reset by peer", false},
		{"context deadline exceeded", false},
	}
	for _, tt := range tests {
		e := &UpstreamError{Err: errors.New(tt.msg)}
		if got := e.CredentialHint(); got != tt.want {
			t.Errorf("CredentialHint(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestClassifyMalformedReply(t *testing.T) {
	gen := &fakeGenerator{reply: "I heard someone buying noodles."}
	client := newTestClient(gen, "test-key", 0)

	_, err := client.ClassifyText(context.Background(), "note", "hint")

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want a MalformedResponseError", err)
	}
}

func TestLocalDateTimeHint(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	at := time.Date(2024, time.May, 6, 10, 30, 0, 0, time.UTC)

	hint := LocalDateTimeHint(at, loc)

	if hint != "Monday, May 6, 2024 18:30 (Asia/Shanghai, UTC+08:00)" {
		t.Errorf("hint = %q", hint)
	}
}
