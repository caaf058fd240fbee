package dispatch

import (
	"fmt"
	"net/url"
	"strings"

	"stickerbot/internal/channel"
	"stickerbot/internal/config"
	"stickerbot/internal/media"
	"stickerbot/internal/services"
	"stickerbot/internal/sticker"
)

// User-facing replies.
const (
	ReplyCreateHint   = "Send or reply to an image, GIF or short video with %ss."
	ReplyRenameTarget = "Reply to a sticker or image."
	ReplyRenameUsage  = "Usage: %sr <name> | <author>"
	ReplyBadAudioURL  = "Please send a valid YouTube link."
	ReplyBusy         = "Busy right now, try again in a moment."
)

// Action is what Handle should do with a message.
type Action int

const (
	// ActionIgnore drops the message without acknowledging it.
	ActionIgnore Action = iota
	// ActionPassThrough marks the conversation read.
	ActionPassThrough
	// ActionReply sends Decision.Reply and nothing else.
	ActionReply
	ActionCreate
	ActionRename
	ActionFetchAudio
)

func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionPassThrough:
		return "pass_through"
	case ActionReply:
		return "reply"
	case ActionCreate:
		return "create"
	case ActionRename:
		return "rename"
	case ActionFetchAudio:
		return "fetch_audio"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Decide.
type Decision struct {
	Action Action
	// Reply is the text for ActionReply.
	Reply string
	// Err classifies rejected commands (ErrParse, ErrIneligibleTarget).
	Err error
	// Target is the attachment to convert for create and rename.
	Target   *channel.Attachment
	Metadata sticker.Metadata
	// Implicit marks a create triggered by media alone.
	Implicit bool
	URL      string
}

// Grammar holds the command settings.
type Grammar struct {
	Prefix           string
	Separator        string
	Groups           bool
	ImplicitInGroups bool
	AudioEnabled     bool
	Defaults         sticker.Metadata
}

// GrammarFromConfig builds the grammar from the bot, sticker and audio sections.
func GrammarFromConfig(cfg *config.Config) Grammar {
	return Grammar{
		Prefix:           cfg.Bot.Prefix,
		Separator:        cfg.Bot.RenameSeparator,
		Groups:           cfg.Bot.Groups,
		ImplicitInGroups: cfg.Bot.ImplicitInGroups,
		AudioEnabled:     cfg.Audio.Enabled,
		Defaults:         sticker.NewMetadata(cfg.Sticker.Name, cfg.Sticker.Author),
	}
}

// HelpText lists the available commands.
func (g Grammar) HelpText() string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	if g.AudioEnabled {
		fmt.Fprintf(&b, "%syt <YouTube URL> - Download audio as MP3\n", g.Prefix)
	}
	fmt.Fprintf(&b, "%ss - Create sticker (image, GIF or short video)\n", g.Prefix)
	fmt.Fprintf(&b, "%sr <name> %s <author> - Rename sticker (reply to sticker)", g.Prefix, g.separator())
	return b.String()
}

// Decide classifies msg. It performs no I/O.
func (g Grammar) Decide(msg channel.Message) Decision {
	if !msg.Direct && !g.Groups {
		return Decision{Action: ActionIgnore}
	}

	token, arg, isCommand := g.splitCommand(msg.Text)
	if isCommand {
		switch {
		case token == "help":
			return Decision{Action: ActionReply, Reply: g.HelpText()}
		case token == "s":
			return g.decideCreate(msg)
		case token == "yt" && g.AudioEnabled:
			return g.decideAudio(arg)
		case strings.HasPrefix(token, "r"):
			return g.decideRename(msg, arg)
		}
	}

	if msg.Attachment.Eligible() && (msg.Direct || g.ImplicitInGroups) {
		return Decision{Action: ActionCreate, Target: msg.Attachment, Metadata: g.Defaults, Implicit: true}
	}
	return Decision{Action: ActionPassThrough}
}

func (g Grammar) decideCreate(msg channel.Message) Decision {
	switch {
	case msg.Attachment.Eligible():
		return Decision{Action: ActionCreate, Target: msg.Attachment, Metadata: g.Defaults}
	case msg.Quoted != nil && msg.Quoted.Attachment.Eligible():
		return Decision{Action: ActionCreate, Target: msg.Quoted.Attachment, Metadata: g.Defaults}
	}
	return Decision{
		Action: ActionReply,
		Reply:  fmt.Sprintf(ReplyCreateHint, g.Prefix),
		Err:    services.Wrap(services.ErrIneligibleTarget, "dispatch", "create", "no eligible media on message or reply", nil),
	}
}

func (g Grammar) decideRename(msg channel.Message, arg string) Decision {
	sep := g.separator()
	if !strings.Contains(arg, sep) {
		return Decision{
			Action: ActionReply,
			Reply:  fmt.Sprintf(ReplyRenameUsage, g.Prefix),
			Err:    services.Wrap(services.ErrParse, "dispatch", "rename", "missing separator "+sep, nil),
		}
	}
	parts := strings.SplitN(arg, sep, 3)
	name := parts[0]
	author := parts[1]

	if msg.Quoted == nil || msg.Quoted.Attachment == nil || msg.Quoted.Attachment.Kind != media.KindStaticImage {
		return Decision{
			Action: ActionReply,
			Reply:  ReplyRenameTarget,
			Err:    services.Wrap(services.ErrIneligibleTarget, "dispatch", "rename", "reply target is not a sticker or image", nil),
		}
	}
	return Decision{
		Action:   ActionRename,
		Target:   msg.Quoted.Attachment,
		Metadata: sticker.NewMetadata(name, author),
	}
}

func (g Grammar) decideAudio(arg string) Decision {
	link, ok := youTubeURL(arg)
	if !ok {
		return Decision{
			Action: ActionReply,
			Reply:  ReplyBadAudioURL,
			Err:    services.Wrap(services.ErrParse, "dispatch", "yt", "not a YouTube link", nil),
		}
	}
	return Decision{Action: ActionFetchAudio, URL: link}
}

// youTubeURL accepts the first word of arg when it is an http(s) link on
// youtube.com, one of its subdomains, or youtu.be. A missing scheme is read
// as https.
func youTubeURL(arg string) (string, bool) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return "", false
	}
	raw := fields[0]
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.User != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host != "youtu.be" && host != "youtube.com" && !strings.HasSuffix(host, ".youtube.com") {
		return "", false
	}
	return u.String(), true
}

// splitCommand returns the command token and its argument when text starts
// with the prefix.
func (g Grammar) splitCommand(text string) (string, string, bool) {
	text = strings.TrimSpace(text)
	if g.Prefix == "" || !strings.HasPrefix(text, g.Prefix) {
		return "", "", false
	}
	rest := text[len(g.Prefix):]
	if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' {
		return "", "", false
	}
	token, arg, _ := strings.Cut(rest, " ")
	if i := strings.IndexAny(token, "\t\n"); i >= 0 {
		arg = token[i+1:] + " " + arg
		token = token[:i]
	}
	return token, strings.TrimSpace(arg), true
}

func (g Grammar) separator() string {
	if g.Separator == "" {
		return "|"
	}
	return g.Separator
}
