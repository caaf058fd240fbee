package dispatch_test

import (
	"errors"
	"strings"
	"testing"

	"stickerbot/internal/channel"
	"stickerbot/internal/dispatch"
	"stickerbot/internal/media"
	"stickerbot/internal/services"
	"stickerbot/internal/sticker"
)

func testGrammar() dispatch.Grammar {
	return dispatch.Grammar{
		Prefix:       "!",
		Separator:    "|",
		Groups:       true,
		AudioEnabled: true,
		Defaults:     sticker.Metadata{Name: "pack", Author: "bot"},
	}
}

func image(ref string) *channel.Attachment {
	return channel.NewAttachment(ref, "image/jpeg", "", 10, 0, media.Flags{})
}

func video(ref string) *channel.Attachment {
	return channel.NewAttachment(ref, "video/mp4", "", 10, 0, media.Flags{})
}

func TestDecideRenameWithoutSeparatorIsUsage(t *testing.T) {
	msg := channel.Message{Direct: true, Text: "!r cat jane", Quoted: &channel.Message{Attachment: image("q")}}
	d := testGrammar().Decide(msg)
	if d.Action != dispatch.ActionReply || d.Reply != "Usage: !r <name> | <author>" {
		t.Fatalf("unexpected decision %+v", d)
	}
	if !errors.Is(d.Err, services.ErrParse) {
		t.Fatalf("expected parse error, got %v", d.Err)
	}
}

func TestDecideRenameRejectsVideoTarget(t *testing.T) {
	msg := channel.Message{Direct: true, Text: "!r cat|jane", Quoted: &channel.Message{Attachment: video("v")}}
	d := testGrammar().Decide(msg)
	if d.Action != dispatch.ActionReply || d.Reply != dispatch.ReplyRenameTarget {
		t.Fatalf("unexpected decision %+v", d)
	}
	if !errors.Is(d.Err, services.ErrIneligibleTarget) {
		t.Fatalf("expected ineligible target, got %v", d.Err)
	}
}

func TestDecideRenameRequiresReply(t *testing.T) {
	d := testGrammar().Decide(channel.Message{Direct: true, Text: "!rename a | b", Attachment: image("self")})
	if d.Action != dispatch.ActionReply || d.Reply != dispatch.ReplyRenameTarget {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestDecideRenameParsesNameAndAuthor(t *testing.T) {
	msg := channel.Message{Direct: true, Text: "!rename  cat | jane | extra", Quoted: &channel.Message{Attachment: image("q")}}
	d := testGrammar().Decide(msg)
	if d.Action != dispatch.ActionRename {
		t.Fatalf("unexpected decision %+v", d)
	}
	if d.Metadata != (sticker.Metadata{Name: "cat", Author: "jane"}) {
		t.Fatalf("metadata = %+v", d.Metadata)
	}
	if d.Target.Ref != "q" {
		t.Fatalf("target = %+v", d.Target)
	}

	empty := testGrammar().Decide(channel.Message{Direct: true, Text: "!r cat|", Quoted: &channel.Message{Attachment: image("q")}})
	if empty.Action != dispatch.ActionRename || empty.Metadata.Author != "" {
		t.Fatalf("empty author should be allowed: %+v", empty)
	}
}

func TestDecideCreateTargetResolution(t *testing.T) {
	g := testGrammar()

	self := g.Decide(channel.Message{Text: "!s", Attachment: image("self"), Quoted: &channel.Message{Attachment: image("quoted")}})
	if self.Action != dispatch.ActionCreate || self.Target.Ref != "self" {
		t.Fatalf("expected self target, got %+v", self)
	}
	if self.Metadata != g.Defaults {
		t.Fatalf("create should use defaults, got %+v", self.Metadata)
	}

	quoted := g.Decide(channel.Message{Text: "!s", Quoted: &channel.Message{Attachment: video("quoted")}})
	if quoted.Action != dispatch.ActionCreate || quoted.Target.Ref != "quoted" {
		t.Fatalf("expected quoted target, got %+v", quoted)
	}

	pdf := channel.NewAttachment("doc", "application/pdf", "", 1, 0, media.Flags{})
	none := g.Decide(channel.Message{Text: "!s", Attachment: pdf})
	if none.Action != dispatch.ActionReply || none.Reply != "Send or reply to an image, GIF or short video with !s." {
		t.Fatalf("expected hint, got %+v", none)
	}
}

func TestDecideImplicitCreate(t *testing.T) {
	g := testGrammar()
	direct := g.Decide(channel.Message{Direct: true, Attachment: image("a")})
	if direct.Action != dispatch.ActionCreate || !direct.Implicit {
		t.Fatalf("direct media should be implicit create, got %+v", direct)
	}
	group := g.Decide(channel.Message{Attachment: image("a")})
	if group.Action != dispatch.ActionPassThrough {
		t.Fatalf("group media should pass through, got %+v", group)
	}
	g.ImplicitInGroups = true
	if d := g.Decide(channel.Message{Attachment: image("a")}); d.Action != dispatch.ActionCreate {
		t.Fatalf("implicit_in_groups should create, got %+v", d)
	}
	unsupported := channel.NewAttachment("x", "image/svg+xml", "", 1, 0, media.Flags{})
	if d := g.Decide(channel.Message{Direct: true, Attachment: unsupported}); d.Action != dispatch.ActionPassThrough {
		t.Fatalf("unsupported media should pass through, got %+v", d)
	}
}

func TestDecideGroupsDisabled(t *testing.T) {
	g := testGrammar()
	g.Groups = false
	if d := g.Decide(channel.Message{Text: "!help"}); d.Action != dispatch.ActionIgnore {
		t.Fatalf("expected ignore, got %+v", d)
	}
	if d := g.Decide(channel.Message{Direct: true, Text: "!help"}); d.Action != dispatch.ActionReply {
		t.Fatalf("direct messages still handled, got %+v", d)
	}
}

func TestDecideHelpAndPassThrough(t *testing.T) {
	g := testGrammar()
	help := g.Decide(channel.Message{Direct: true, Text: "!help"})
	if help.Action != dispatch.ActionReply || !strings.Contains(help.Reply, "!s - Create sticker") || !strings.Contains(help.Reply, "!yt") {
		t.Fatalf("unexpected help %+v", help)
	}
	for _, text := range []string{"hello", "!helpme", "! s", "!unknown", ""} {
		if d := g.Decide(channel.Message{Direct: true, Text: text}); d.Action != dispatch.ActionPassThrough {
			t.Fatalf("%q: expected pass through, got %+v", text, d)
		}
	}
}

func TestDecideAudio(t *testing.T) {
	g := testGrammar()
	ok := g.Decide(channel.Message{Direct: true, Text: "!yt https://youtu.be/abc"})
	if ok.Action != dispatch.ActionFetchAudio || ok.URL != "https://youtu.be/abc" {
		t.Fatalf("unexpected decision %+v", ok)
	}
	bad := g.Decide(channel.Message{Direct: true, Text: "!yt https://example.com/x"})
	if bad.Action != dispatch.ActionReply || bad.Reply != dispatch.ReplyBadAudioURL {
		t.Fatalf("unexpected decision %+v", bad)
	}
	g.AudioEnabled = false
	if d := g.Decide(channel.Message{Direct: true, Text: "!yt https://youtu.be/abc"}); d.Action != dispatch.ActionPassThrough {
		t.Fatalf("disabled audio should pass through, got %+v", d)
	}
	if strings.Contains(g.HelpText(), "yt") {
		t.Fatal("help should omit disabled audio command")
	}
}

func TestDecideAudioValidatesLink(t *testing.T) {
	g := testGrammar()
	accepted := []struct{ text, want string }{
		{"!yt https://www.youtube.com/watch?v=abc", "https://www.youtube.com/watch?v=abc"},
		{"!yt youtu.be/abc", "https://youtu.be/abc"},
		{"!yt http://music.youtube.com/watch?v=x extra words", "http://music.youtube.com/watch?v=x"},
	}
	for _, tc := range accepted {
		d := g.Decide(channel.Message{Direct: true, Text: tc.text})
		if d.Action != dispatch.ActionFetchAudio || d.URL != tc.want {
			t.Fatalf("%q: unexpected decision %+v", tc.text, d)
		}
	}

	rejected := []string{
		"!yt --batch-file=/etc/passwd#youtube.com",
		"!yt -o/tmp/x youtube.com",
		"!yt https://evil.example/youtube.com",
		"!yt https://notyoutube.com/watch",
		"!yt https://youtube.com.evil.example/watch",
		"!yt ftp://youtube.com/x",
		"!yt https://user@youtube.com/x",
	}
	for _, text := range rejected {
		d := g.Decide(channel.Message{Direct: true, Text: text})
		if d.Action != dispatch.ActionReply || d.Reply != dispatch.ReplyBadAudioURL {
			t.Fatalf("%q: expected rejection, got %+v", text, d)
		}
	}
}
