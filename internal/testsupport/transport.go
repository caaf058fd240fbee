package testsupport

import (
	"context"
	"errors"
	"sync"

	"stickerbot/internal/channel"
	"stickerbot/internal/services"
	"stickerbot/internal/sticker"
)

// Sent is one outbound call recorded by FakeTransport.
type Sent struct {
	Kind    string // text, sticker, audio, read
	Target  channel.Target
	Text    string
	Sticker sticker.Asset
	Path    string
}

// FakeTransport is an in-memory channel.Transport.
type FakeTransport struct {
	mu sync.Mutex
	// Payloads maps attachment refs to download results.
	Payloads map[string][]byte
	// SendStickerErr fails every SendSticker call when set.
	SendStickerErr error
	// SendAudioErr fails every SendAudio call when set.
	SendAudioErr error
	sent         []Sent
	downloads    int
}

// NewFakeTransport returns a transport serving the given payloads.
func NewFakeTransport(payloads map[string][]byte) *FakeTransport {
	if payloads == nil {
		payloads = map[string][]byte{}
	}
	return &FakeTransport{Payloads: payloads}
}

func (f *FakeTransport) Name() string { return "fake" }

func (f *FakeTransport) Run(ctx context.Context, _ channel.Handler) error {
	<-ctx.Done()
	return nil
}

func (f *FakeTransport) Download(_ context.Context, att channel.Attachment) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	data, ok := f.Payloads[att.Ref]
	if !ok || len(data) == 0 {
		return nil, services.Wrap(services.ErrDownload, "fetch", "fake", "no payload for "+att.Ref, nil)
	}
	return data, nil
}

func (f *FakeTransport) SendText(_ context.Context, target channel.Target, text string) error {
	f.record(Sent{Kind: "text", Target: target, Text: text})
	return nil
}

func (f *FakeTransport) SendSticker(_ context.Context, target channel.Target, asset sticker.Asset) error {
	if f.SendStickerErr != nil {
		return f.SendStickerErr
	}
	f.record(Sent{Kind: "sticker", Target: target, Sticker: asset})
	return nil
}

func (f *FakeTransport) SendAudio(_ context.Context, target channel.Target, path string) error {
	if f.SendAudioErr != nil {
		return f.SendAudioErr
	}
	f.record(Sent{Kind: "audio", Target: target, Path: path})
	return nil
}

func (f *FakeTransport) MarkRead(_ context.Context, target channel.Target) error {
	f.record(Sent{Kind: "read", Target: target})
	return nil
}

// Sent returns a copy of the recorded calls.
func (f *FakeTransport) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Sent(nil), f.sent...)
}

// Texts returns the text replies in order.
func (f *FakeTransport) Texts() []string {
	var texts []string
	for _, s := range f.Sent() {
		if s.Kind == "text" {
			texts = append(texts, s.Text)
		}
	}
	return texts
}

// Downloads returns how many Download calls were made.
func (f *FakeTransport) Downloads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloads
}

func (f *FakeTransport) record(s Sent) {
	f.mu.Lock()
	f.sent = append(f.sent, s)
	f.mu.Unlock()
}

// ErrSendFailed is a convenience error for SendStickerErr/SendAudioErr.
var ErrSendFailed = errors.New("send failed")
