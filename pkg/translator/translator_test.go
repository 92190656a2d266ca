package translator

import (
	"strings"
	"testing"

	"github.com/mymmrac/telego"
)

func TestToTelegram_PlainText(t *testing.T) {
	tlr := New("")

	out := tlr.ToTelegram(&ChannelMessage{Text: "hello"}, "42")
	if out == nil {
		t.Fatal("expected a translation")
	}
	if out.ChatID != "42" {
		t.Errorf("chat_id = %q, want 42", out.ChatID)
	}
	if out.ParseMode != "Markdown" {
		t.Errorf("parse_mode = %q, want Markdown", out.ParseMode)
	}
	if out.Text != "hello" {
		t.Errorf("text = %q, want hello", out.Text)
	}
	if out.Photo != "" || out.Video != "" || out.Document != "" {
		t.Error("plain text must not carry media payloads")
	}
}

func TestToTelegram_AttributesWithoutAttachment(t *testing.T) {
	tlr := New("")

	out := tlr.ToTelegram(&ChannelMessage{
		Text:       "hi there",
		Attributes: &Attributes{Subtype: "info"},
	}, "42")
	if out == nil || out.Text != "hi there" {
		t.Fatalf("expected plain text carry-through, got %+v", out)
	}
}

func TestToTelegram_Frame(t *testing.T) {
	tlr := New("")

	out := tlr.ToTelegram(&ChannelMessage{
		Text:     "Open the widget",
		Type:     "frame",
		Metadata: &Metadata{Src: "https://example.com/frame"},
	}, "42")
	if out == nil {
		t.Fatal("expected a translation")
	}
	if out.Photo != "" || out.Document != "" {
		t.Error("frame must be text-only")
	}
	if !strings.Contains(out.Text, "Open the widget") || !strings.Contains(out.Text, "https://example.com/frame") {
		t.Errorf("frame text should embed the source link, got %q", out.Text)
	}
}

func TestToTelegram_MediaKinds(t *testing.T) {
	tests := []struct {
		name     string
		metaType string
		msgType  string
		want     func(*TelegramMessage) string
	}{
		{"image by metadata type", "image/png", "", func(m *TelegramMessage) string { return m.Photo }},
		{"video by metadata type", "video/mp4", "", func(m *TelegramMessage) string { return m.Video }},
		{"document by metadata type", "application/pdf", "", func(m *TelegramMessage) string { return m.Document }},
		{"image by message type", "", "image", func(m *TelegramMessage) string { return m.Photo }},
		{"video by message type", "", "video", func(m *TelegramMessage) string { return m.Video }},
		{"document by message type", "", "application/zip", func(m *TelegramMessage) string { return m.Document }},
	}

	tlr := New("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tlr.ToTelegram(&ChannelMessage{
				Text:     "caption text",
				Type:     tt.msgType,
				Metadata: &Metadata{Src: "https://cdn.example.com/f", Type: tt.metaType},
			}, "42")
			if out == nil {
				t.Fatal("expected a translation")
			}
			if got := tt.want(out); got != "https://cdn.example.com/f" {
				t.Errorf("payload = %q, want the metadata src", got)
			}
			// Exactly one payload kind.
			set := 0
			for _, v := range []string{out.Photo, out.Video, out.Document, out.Text} {
				if v != "" {
					set++
				}
			}
			if set != 1 {
				t.Errorf("want exactly one payload kind, got %d", set)
			}
			if out.Caption != "caption text" {
				t.Errorf("caption = %q, want caption text", out.Caption)
			}
		})
	}
}

func TestToTelegram_UnsupportedMedia(t *testing.T) {
	tlr := New("")

	tests := []struct {
		name     string
		metaType string
		msgType  string
	}{
		{"audio mime", "audio/ogg", ""},
		{"no type at all", "", ""},
		{"unknown message type", "", "sticker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tlr.ToTelegram(&ChannelMessage{
				Text:     "x",
				Type:     tt.msgType,
				Metadata: &Metadata{Src: "https://cdn.example.com/f", Type: tt.metaType},
			}, "42")
			if out != nil {
				t.Errorf("expected nil for unsupported media, got %+v", out)
			}
		})
	}
}

func TestToTelegram_Buttons(t *testing.T) {
	tlr := New("")

	long := strings.Repeat("a", 40)
	out := tlr.ToTelegram(&ChannelMessage{
		Text: "pick one",
		Attributes: &Attributes{
			Attachment: &Attachment{Buttons: []Button{
				{Type: "text", Value: "Yes"},
				{Type: "url", Value: "https://example.com"},
				{Type: "action", Value: long},
				{Type: "action", Value: "short action"},
			}},
		},
	}, "42")
	if out == nil {
		t.Fatal("expected a translation")
	}
	if out.Text != "pick one" {
		t.Errorf("text = %q, want pick one", out.Text)
	}
	if out.ReplyMarkup == nil {
		t.Fatal("expected a reply keyboard")
	}
	if !out.ReplyMarkup.ResizeKeyboard || !out.ReplyMarkup.OneTimeKeyboard {
		t.Error("keyboard must be resizable and one-time")
	}

	rows := out.ReplyMarkup.Keyboard
	if len(rows) != 3 {
		t.Fatalf("keyboard rows = %d, want 3 (url button dropped)", len(rows))
	}
	for i, row := range rows {
		if len(row) != 1 {
			t.Errorf("row %d has %d cells, want 1", i, len(row))
		}
	}
	if rows[0][0].Text != "Yes" {
		t.Errorf("row 0 = %q, want Yes", rows[0][0].Text)
	}
	wantTruncated := strings.Repeat("a", 34) + ".."
	if rows[1][0].Text != wantTruncated {
		t.Errorf("row 1 = %q, want %q", rows[1][0].Text, wantTruncated)
	}
	if rows[2][0].Text != "short action" {
		t.Errorf("row 2 = %q, want unchanged label", rows[2][0].Text)
	}
	for _, row := range rows {
		if strings.Contains(row[0].Text, "example.com") {
			t.Error("url button leaked into the keyboard")
		}
	}
}

func TestToTelegram_ButtonLabelBoundary(t *testing.T) {
	tlr := New("")

	exact := strings.Repeat("b", 36)
	out := tlr.ToTelegram(&ChannelMessage{
		Text: "x",
		Attributes: &Attributes{
			Attachment: &Attachment{Buttons: []Button{{Type: "action", Value: exact}}},
		},
	}, "42")
	if out == nil || out.ReplyMarkup == nil {
		t.Fatal("expected a keyboard")
	}
	if got := out.ReplyMarkup.Keyboard[0][0].Text; got != exact {
		t.Errorf("36-rune label should be unchanged, got %q", got)
	}
}

func TestToTelegram_OnlyURLButtons(t *testing.T) {
	tlr := New("")

	out := tlr.ToTelegram(&ChannelMessage{
		Text: "links below",
		Attributes: &Attributes{
			Attachment: &Attachment{Buttons: []Button{{Type: "url", Value: "https://example.com"}}},
		},
	}, "42")
	if out == nil {
		t.Fatal("text must still be carried when all buttons are dropped")
	}
	if out.ReplyMarkup != nil {
		t.Error("empty keyboard grid must not be attached")
	}
}

func TestToTelegram_AttachmentWithoutButtons(t *testing.T) {
	tlr := New("")

	out := tlr.ToTelegram(&ChannelMessage{
		Text:       "x",
		Attributes: &Attributes{Attachment: &Attachment{Type: "template"}},
	}, "42")
	if out != nil {
		t.Errorf("attachment without buttons is unsupported, got %+v", out)
	}
}

func TestToPosiflow_NoMessage(t *testing.T) {
	tlr := New("")

	if out := tlr.ToPosiflow(telego.Update{}, "tok", ""); out != nil {
		t.Errorf("update without message must yield nil, got %+v", out)
	}
}

func TestToPosiflow_Text(t *testing.T) {
	tlr := New("")

	out := tlr.ToPosiflow(telego.Update{
		Message: &telego.Message{
			Text: "ciao",
			From: &telego.User{FirstName: "Ada", LastName: "Lovelace"},
		},
	}, "tok", "")
	if out == nil {
		t.Fatal("expected a translation")
	}
	if out.Text != "ciao" {
		t.Errorf("text = %q, want ciao", out.Text)
	}
	if out.SenderFullname != "Ada Lovelace" {
		t.Errorf("senderFullname = %q, want Ada Lovelace", out.SenderFullname)
	}
	if out.Channel == nil || out.Channel.Name != ChannelName {
		t.Errorf("channel = %+v, want %s", out.Channel, ChannelName)
	}
}

func TestToPosiflow_SenderNameFallback(t *testing.T) {
	tlr := New("")

	tests := []struct {
		name string
		from *telego.User
		want string
	}{
		{"first only", &telego.User{FirstName: "Ada"}, "Ada"},
		{"last only", &telego.User{LastName: "Lovelace"}, "Lovelace"},
		{"none", &telego.User{}, "Unknown"},
		{"no sender", nil, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tlr.ToPosiflow(telego.Update{
				Message: &telego.Message{Text: "x", From: tt.from},
			}, "tok", "")
			if out.SenderFullname != tt.want {
				t.Errorf("senderFullname = %q, want %q", out.SenderFullname, tt.want)
			}
		})
	}
}

func TestToPosiflow_Photo(t *testing.T) {
	tlr := New("https://files.example/bot")

	out := tlr.ToPosiflow(telego.Update{
		Message: &telego.Message{
			From: &telego.User{FirstName: "Ada"},
			Photo: []telego.PhotoSize{
				{FileID: "small", Width: 90, Height: 60},
				{FileID: "big", Width: 1280, Height: 720},
			},
		},
	}, "123:abc", "photos/file_7.jpg")
	if out == nil {
		t.Fatal("expected a translation")
	}
	if out.Type != "image" {
		t.Errorf("type = %q, want image", out.Type)
	}
	if out.Text != "Attached image" {
		t.Errorf("text = %q, want the photo fallback caption", out.Text)
	}
	wantSrc := "https://files.example/bot123:abc/photos/file_7.jpg"
	if out.Metadata == nil || out.Metadata.Src != wantSrc {
		t.Fatalf("metadata src = %+v, want %q", out.Metadata, wantSrc)
	}
	if out.Metadata.Width != 1280 || out.Metadata.Height != 720 {
		t.Errorf("metadata should describe the largest variant, got %dx%d",
			out.Metadata.Width, out.Metadata.Height)
	}
}

func TestToPosiflow_PhotoKeepsCaption(t *testing.T) {
	tlr := New("")

	out := tlr.ToPosiflow(telego.Update{
		Message: &telego.Message{
			Caption: "look at this",
			From:    &telego.User{FirstName: "Ada"},
			Photo:   []telego.PhotoSize{{FileID: "big", Width: 10, Height: 10}},
		},
	}, "tok", "p.jpg")
	if out.Text != "look at this" {
		t.Errorf("text = %q, want the caption", out.Text)
	}
}

func TestToPosiflow_VideoAndDocument(t *testing.T) {
	tlr := New("https://files.example/bot")

	video := tlr.ToPosiflow(telego.Update{
		Message: &telego.Message{
			From:  &telego.User{FirstName: "Ada"},
			Video: &telego.Video{FileID: "v", FileName: "clip.mp4", MimeType: "video/mp4"},
		},
	}, "tok", "videos/clip.mp4")
	if video == nil || video.Type != "video" {
		t.Fatalf("video type = %+v, want video", video)
	}
	if video.Text != "[clip.mp4](https://files.example/bottok/videos/clip.mp4)" {
		t.Errorf("video text = %q, want markdown link", video.Text)
	}
	if video.Metadata.Name != "clip.mp4" || video.Metadata.Type != "video/mp4" {
		t.Errorf("video metadata = %+v", video.Metadata)
	}

	doc := tlr.ToPosiflow(telego.Update{
		Message: &telego.Message{
			From:     &telego.User{FirstName: "Ada"},
			Document: &telego.Document{FileID: "d", FileName: "report.pdf", MimeType: "application/pdf"},
		},
	}, "tok", "documents/report.pdf")
	if doc == nil || doc.Type != "file" {
		t.Fatalf("document type = %+v, want file", doc)
	}
	if doc.Metadata.Type != "application/pdf" {
		t.Errorf("document metadata = %+v", doc.Metadata)
	}
}

// Translating a plain text message out and a plain text update in must both
// preserve the payload byte for byte.
func TestRoundTrip_PlainText(t *testing.T) {
	tlr := New("")

	const text = "exact payload – ÄÖÜ 😀"
	out := tlr.ToTelegram(&ChannelMessage{Text: text}, "42")
	if out == nil || out.Text != text {
		t.Fatalf("outbound text = %+v, want %q", out, text)
	}

	back := tlr.ToPosiflow(telego.Update{
		Message: &telego.Message{Text: out.Text, From: &telego.User{FirstName: "A"}},
	}, "tok", "")
	if back == nil || back.Text != text {
		t.Fatalf("inbound text = %+v, want %q", back, text)
	}
}
