package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/posiflow"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/store"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/translator"
)

// Known info-message label that Posiflow emits several times per lead; only
// the first would be useful, so all of them are dropped.
const labelLeadUpdated = "LEAD_UPDATED"

type channelEvent struct {
	Payload translator.ChannelMessage `json:"payload"`
}

// handleChannelEvent receives a Posiflow channel message and forwards it to
// Telegram. Drops (echoes, info subtypes, missing configuration,
// untranslatable shapes) are acknowledged with 200: the inbound event itself
// was valid.
func (s *Server) handleChannelEvent(w http.ResponseWriter, r *http.Request) {
	var event channelEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	msg := event.Payload
	projectID := msg.ProjectID
	log := s.log.With().Str("project_id", projectID).Logger()

	if strings.Contains(msg.Sender, translator.ChannelName) {
		log.Debug().Str("sender", msg.Sender).Msg("Skip same sender")
		w.WriteHeader(http.StatusOK)
		return
	}

	if msg.Attributes != nil && msg.Attributes.Subtype == "info" {
		log.Debug().Msg("Skip info subtype")
		w.WriteHeader(http.StatusOK)
		return
	}

	settings, err := s.settings.Get(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug().Msg("No settings found, integration not configured")
			w.WriteHeader(http.StatusOK)
			return
		}
		log.Error().Err(err).Msg("Settings lookup failed")
		http.Error(w, "settings unavailable", http.StatusInternalServerError)
		return
	}

	if msg.Attributes != nil && msg.Attributes.Subtype == "info/support" {
		if msg.Attributes.MessageLabel != nil && msg.Attributes.MessageLabel.Key == labelLeadUpdated {
			log.Debug().Msg("Skip LEAD_UPDATED")
			w.WriteHeader(http.StatusOK)
			return
		}
		if !settings.ShowInfoMessage {
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	chatID := msg.Recipient[strings.LastIndex(msg.Recipient, "-")+1:]

	if settings.Expired {
		s.sendExpirationNotice(r.Context(), settings, chatID)
		w.WriteHeader(http.StatusOK)
		return
	}

	if msg.Attributes != nil && len(msg.Attributes.Commands) > 0 {
		commands := msg.Attributes.Commands
		// Command playback may outlive the webhook by design; acknowledge
		// now and drain in the background.
		go func() {
			if err := s.sequencer.Run(context.Background(), settings.TelegramToken, chatID, commands); err != nil {
				log.Error().Err(err).Msg("Command sequence halted")
			}
		}()
		w.WriteHeader(http.StatusOK)
		return
	}

	if msg.Text != "" || msg.Metadata != nil {
		tgMsg := s.translator.ToTelegram(&msg, chatID)
		if tgMsg == nil {
			log.Debug().Msg("Message has no telegram representation, dropped")
			w.WriteHeader(http.StatusOK)
			return
		}
		if err := s.outbound.Send(r.Context(), settings.TelegramToken, tgMsg); err != nil {
			log.Error().Err(err).Msg("Send to Telegram failed")
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	log.Debug().Msg("No command, no text, skipped")
	w.WriteHeader(http.StatusOK)
}

// sendExpirationNotice tells the visitor, through Posiflow, that the
// tenant's plan no longer covers this integration.
func (s *Server) sendExpirationNotice(ctx context.Context, settings *store.Settings, chatID string) {
	notice := &translator.ChannelMessage{
		Text:           "Expired. Upgrade Plan.",
		Sender:         "system",
		SenderFullname: "System",
		Attributes:     &translator.Attributes{Subtype: "info"},
		Channel:        &translator.Channel{Name: translator.ChannelName},
	}
	info := posiflow.MessageInfo{From: chatID}
	if err := s.channel.SendMessage(ctx, settings, notice, info); err != nil {
		s.log.Error().Err(err).Str("project_id", settings.ProjectID).
			Msg("Expiration notice delivery failed")
	}
}

// handleTelegramEvent receives a Bot API update and forwards it into the
// tenant's Posiflow conversation.
func (s *Server) handleTelegramEvent(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	log := s.log.With().Str("project_id", projectID).Logger()

	var update telego.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	if update.EditedMessage != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Edited messages are not supported. Message ignored.",
		})
		return
	}
	if update.Message == nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Message not sent"})
		return
	}

	settings, err := s.settings.Get(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]string{
				"message": "Telegram not installed for this project",
			})
			return
		}
		log.Error().Err(err).Msg("Settings lookup failed")
		http.Error(w, "settings unavailable", http.StatusInternalServerError)
		return
	}

	filePath := ""
	if fileID := mediaFileID(update.Message); fileID != "" {
		filePath, err = s.media.GetFilePath(r.Context(), settings.TelegramToken, fileID)
		if err != nil {
			log.Error().Err(err).Str("file_id", fileID).Msg("Media download failed")
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	msg := s.translator.ToPosiflow(update, settings.TelegramToken, filePath)
	if msg == nil {
		http.Error(w, "unsupported message", http.StatusBadRequest)
		return
	}

	if err := s.channel.SendMessage(r.Context(), settings, msg, senderInfo(update.Message)); err != nil {
		log.Error().Err(err).Msg("Send to Posiflow failed")
		w.WriteHeader(http.StatusOK)
		return
	}

	log.Debug().Msg("Message sent to Posiflow")
	w.WriteHeader(http.StatusOK)
}

// mediaFileID picks the file reference to resolve before translation,
// mirroring the translator's media precedence. Photos use the largest
// variant, which the platform puts last.
func mediaFileID(message *telego.Message) string {
	switch {
	case len(message.Photo) > 0:
		return message.Photo[len(message.Photo)-1].FileID
	case message.Video != nil:
		return message.Video.FileID
	case message.Document != nil:
		return message.Document.FileID
	}
	return ""
}

func senderInfo(message *telego.Message) posiflow.MessageInfo {
	info := posiflow.MessageInfo{From: fmt.Sprintf("%d", message.Chat.ID)}
	if message.From != nil {
		info.From = fmt.Sprintf("%d", message.From.ID)
		info.FirstName = message.From.FirstName
		info.LastName = message.From.LastName
	}
	return info
}
