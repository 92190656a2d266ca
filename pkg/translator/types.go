package translator

import (
	"github.com/mymmrac/telego"
)

// ChannelName marks messages that originate from this connector inside
// Posiflow. Posiflow echoes every channel message back to all subscribers,
// so the sender id of our own posts always contains this marker.
const ChannelName = "telegram"

// ChannelMessage is the canonical Posiflow channel message. Field names are
// part of the webhook contract and must not change.
type ChannelMessage struct {
	Text           string      `json:"text,omitempty"`
	Type           string      `json:"type,omitempty"`
	Sender         string      `json:"sender,omitempty"`
	SenderFullname string      `json:"senderFullname,omitempty"`
	Recipient      string      `json:"recipient,omitempty"`
	ProjectID      string      `json:"id_project,omitempty"`
	Channel        *Channel    `json:"channel,omitempty"`
	Metadata       *Metadata   `json:"metadata,omitempty"`
	Attributes     *Attributes `json:"attributes,omitempty"`
}

type Channel struct {
	Name string `json:"name"`
}

// Metadata describes a single attached resource.
type Metadata struct {
	Src    string `json:"src,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
}

type Attributes struct {
	Subtype      string        `json:"subtype,omitempty"`
	MessageLabel *MessageLabel `json:"messagelabel,omitempty"`
	Attachment   *Attachment   `json:"attachment,omitempty"`
	Commands     []Command     `json:"commands,omitempty"`
}

type MessageLabel struct {
	Key string `json:"key,omitempty"`
}

type Attachment struct {
	Type    string   `json:"type,omitempty"`
	Buttons []Button `json:"buttons,omitempty"`
}

// Button is a Posiflow quick-reply button. Only "text" and "action" buttons
// survive translation to a Telegram reply keyboard.
type Button struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Command types recognized inside attributes.commands.
const (
	CommandMessage = "message"
	CommandWait    = "wait"
)

// Command is one step of a scripted multi-turn reply: either a message to
// deliver or a pause before the next step.
type Command struct {
	Type    string          `json:"type"`
	Time    int64           `json:"time,omitempty"` // wait duration, milliseconds
	Message *ChannelMessage `json:"message,omitempty"`
}

// TelegramMessage is the Bot API send envelope. Exactly one of Text, Photo,
// Video or Document is set; media kinds carry the text in Caption.
type TelegramMessage struct {
	ChatID    string `json:"chat_id"`
	ParseMode string `json:"parse_mode"`

	Text     string `json:"text,omitempty"`
	Photo    string `json:"photo,omitempty"`
	Video    string `json:"video,omitempty"`
	Document string `json:"document,omitempty"`
	Caption  string `json:"caption,omitempty"`

	ReplyMarkup *telego.ReplyKeyboardMarkup `json:"reply_markup,omitempty"`
}
