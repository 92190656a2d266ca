package translator

import (
	"strings"

	"github.com/mymmrac/telego"
)

// DefaultFileBaseURL is where Telegram serves downloadable files from.
// The full media URL is <base><bot token>/<file path>.
const DefaultFileBaseURL = "https://api.telegram.org/file/bot"

const (
	parseMode      = "Markdown"
	maxButtonLabel = 36
	photoFallback  = "Attached image"
	unknownSender  = "Unknown"
)

type mediaKind int

const (
	mediaNone mediaKind = iota
	mediaPhoto
	mediaVideo
	mediaDocument
)

var mediaPrefixes = []struct {
	prefix string
	kind   mediaKind
}{
	{"image", mediaPhoto},
	{"video", mediaVideo},
	{"application", mediaDocument},
}

// Translator converts between the Posiflow channel schema and the Telegram
// Bot API schema. It is pure and stateless; both directions return nil for
// shapes that have no representation on the other side, and callers must
// treat nil as "drop, do not forward".
type Translator struct {
	fileBaseURL string
}

func New(fileBaseURL string) *Translator {
	if fileBaseURL == "" {
		fileBaseURL = DefaultFileBaseURL
	}
	return &Translator{fileBaseURL: fileBaseURL}
}

// ToTelegram translates a Posiflow channel message into a Bot API envelope
// addressed to chatID.
func (t *Translator) ToTelegram(msg *ChannelMessage, chatID string) *TelegramMessage {
	if msg == nil {
		return nil
	}

	out := &TelegramMessage{
		ChatID:    chatID,
		ParseMode: parseMode,
	}

	if msg.Type == "frame" {
		text := msg.Text
		if msg.Metadata != nil {
			text += "\n\n👉 " + msg.Metadata.Src
		}
		out.Text = text
		return out
	}

	if msg.Metadata != nil {
		switch detectMediaKind(msg.Metadata.Type, msg.Type) {
		case mediaPhoto:
			out.Photo = msg.Metadata.Src
			out.Caption = msg.Text
		case mediaVideo:
			out.Video = msg.Metadata.Src
			out.Caption = msg.Text
		case mediaDocument:
			out.Document = msg.Metadata.Src
			// Documents keep the raw text verbatim as caption.
			out.Caption = msg.Text
		default:
			return nil
		}
		return out
	}

	if msg.Attributes != nil && msg.Attributes.Attachment != nil {
		att := msg.Attributes.Attachment
		if len(att.Buttons) == 0 {
			return nil
		}
		out.Text = msg.Text
		if markup := buildKeyboard(att.Buttons); markup != nil {
			out.ReplyMarkup = markup
		}
		return out
	}

	out.Text = msg.Text
	return out
}

// buildKeyboard maps Posiflow buttons onto a one-column reply keyboard.
// URL buttons have no reply-keyboard counterpart and are dropped.
func buildKeyboard(buttons []Button) *telego.ReplyKeyboardMarkup {
	var rows [][]telego.KeyboardButton
	for _, btn := range buttons {
		switch btn.Type {
		case "text":
			rows = append(rows, []telego.KeyboardButton{{Text: btn.Value}})
		case "action":
			rows = append(rows, []telego.KeyboardButton{{Text: truncateLabel(btn.Value)}})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return &telego.ReplyKeyboardMarkup{
		Keyboard:        rows,
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

func truncateLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= maxButtonLabel {
		return label
	}
	return string(runes[:maxButtonLabel-2]) + ".."
}

// detectMediaKind resolves the media kind from the resource mime type when
// present, otherwise from the message type.
func detectMediaKind(metaType, msgType string) mediaKind {
	typ := metaType
	if typ == "" {
		typ = msgType
	}
	for _, p := range mediaPrefixes {
		if strings.HasPrefix(typ, p.prefix) {
			return p.kind
		}
	}
	return mediaNone
}

// ToPosiflow translates an inbound Telegram update into a Posiflow channel
// message. Only the wrapped message sub-object is translated; updates without
// one (edits, callback queries) yield nil. For media kinds the caller must
// have resolved filePath via the Bot API getFile method beforehand; token and
// filePath together form the downloadable source URL.
func (t *Translator) ToPosiflow(update telego.Update, token, filePath string) *ChannelMessage {
	message := update.Message
	if message == nil {
		return nil
	}

	fullname := senderFullname(message.From)
	channel := &Channel{Name: ChannelName}
	mediaURL := t.fileBaseURL + token + "/" + filePath

	switch {
	case len(message.Photo) > 0:
		// Variants are ordered smallest to largest; take the largest.
		variant := message.Photo[len(message.Photo)-1]
		text := message.Caption
		if text == "" {
			text = photoFallback
		}
		return &ChannelMessage{
			Text:           text,
			SenderFullname: fullname,
			Channel:        channel,
			Type:           "image",
			Metadata: &Metadata{
				Src:    mediaURL,
				Width:  variant.Width,
				Height: variant.Height,
			},
		}

	case message.Video != nil:
		return &ChannelMessage{
			Text:           "[" + message.Video.FileName + "](" + mediaURL + ")",
			SenderFullname: fullname,
			Channel:        channel,
			Type:           "video",
			Metadata: &Metadata{
				Src:  mediaURL,
				Name: message.Video.FileName,
				Type: message.Video.MimeType,
			},
		}

	case message.Document != nil:
		return &ChannelMessage{
			Text:           "[" + message.Document.FileName + "](" + mediaURL + ")",
			SenderFullname: fullname,
			Channel:        channel,
			Type:           "file",
			Metadata: &Metadata{
				Src:  mediaURL,
				Name: message.Document.FileName,
				Type: message.Document.MimeType,
			},
		}

	default:
		return &ChannelMessage{
			Text:           message.Text,
			SenderFullname: fullname,
			Channel:        channel,
		}
	}
}

func senderFullname(from *telego.User) string {
	if from == nil {
		return unknownSender
	}
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		return unknownSender
	}
	return name
}
