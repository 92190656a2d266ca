// Package telegram wraps the Bot API operations the connector needs: raw
// message delivery, webhook registration and media file path resolution.
// Bots are created lazily per tenant token and cached.
package telegram

import (
	"context"
	"fmt"
	"sync"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/rs/zerolog"

	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/translator"
)

type Client struct {
	apiURL string
	log    zerolog.Logger

	mu   sync.RWMutex
	bots map[string]*telego.Bot
}

// NewClient creates a client. apiURL overrides the Bot API server, empty
// means the public api.telegram.org.
func NewClient(apiURL string, log zerolog.Logger) *Client {
	return &Client{
		apiURL: apiURL,
		log:    log.With().Str("component", "telegram").Logger(),
		bots:   make(map[string]*telego.Bot),
	}
}

func (c *Client) bot(token string) (*telego.Bot, error) {
	c.mu.RLock()
	bot, ok := c.bots[token]
	c.mu.RUnlock()
	if ok {
		return bot, nil
	}

	var opts []telego.BotOption
	if c.apiURL != "" {
		opts = append(opts, telego.WithAPIServer(c.apiURL))
	}
	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	c.mu.Lock()
	c.bots[token] = bot
	c.mu.Unlock()
	return bot, nil
}

// Send delivers a translated envelope, picking the Bot API method that
// matches its payload kind.
func (c *Client) Send(ctx context.Context, token string, msg *translator.TelegramMessage) error {
	bot, err := c.bot(token)
	if err != nil {
		return err
	}

	chatID, err := parseChatID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	switch {
	case msg.Photo != "":
		params := tu.Photo(tu.ID(chatID), tu.FileFromURL(msg.Photo))
		params.Caption = msg.Caption
		params.ParseMode = msg.ParseMode
		_, err = bot.SendPhoto(ctx, params)

	case msg.Video != "":
		params := tu.Video(tu.ID(chatID), tu.FileFromURL(msg.Video))
		params.Caption = msg.Caption
		params.ParseMode = msg.ParseMode
		_, err = bot.SendVideo(ctx, params)

	case msg.Document != "":
		params := tu.Document(tu.ID(chatID), tu.FileFromURL(msg.Document))
		params.Caption = msg.Caption
		params.ParseMode = msg.ParseMode
		_, err = bot.SendDocument(ctx, params)

	default:
		params := tu.Message(tu.ID(chatID), msg.Text)
		params.ParseMode = msg.ParseMode
		if msg.ReplyMarkup != nil {
			params.ReplyMarkup = msg.ReplyMarkup
		}
		_, err = bot.SendMessage(ctx, params)
	}

	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	c.log.Debug().Str("chat_id", msg.ChatID).Msg("Message sent to Telegram")
	return nil
}

// GetFilePath resolves a file reference to the server-side path used to
// build the download URL.
func (c *Client) GetFilePath(ctx context.Context, token, fileID string) (string, error) {
	bot, err := c.bot(token)
	if err != nil {
		return "", err
	}
	file, err := bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("failed to get file %s: %w", fileID, err)
	}
	return file.FilePath, nil
}

// RegisterWebhook points the bot's webhook at url.
func (c *Client) RegisterWebhook(ctx context.Context, token, url string) error {
	bot, err := c.bot(token)
	if err != nil {
		return err
	}
	if err := bot.SetWebhook(ctx, &telego.SetWebhookParams{URL: url}); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	c.log.Info().Str("url", url).Msg("Telegram webhook registered")
	return nil
}

// DeregisterWebhook removes the bot's webhook at disconnect time.
func (c *Client) DeregisterWebhook(ctx context.Context, token string) error {
	bot, err := c.bot(token)
	if err != nil {
		return err
	}
	if err := bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	c.log.Info().Msg("Telegram webhook removed")
	return nil
}

func parseChatID(chatIDStr string) (int64, error) {
	var id int64
	_, err := fmt.Sscanf(chatIDStr, "%d", &id)
	return id, err
}
