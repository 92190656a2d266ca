// Package sequencer drives ordered command lists attached to a Posiflow
// message: send steps are translated and delivered one at a time, wait steps
// pause the run. A failed or untranslatable step halts the whole run; prior
// steps are not rolled back and nothing is retried.
package sequencer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/translator"
)

// Outbound delivers a translated envelope to Telegram on behalf of the bot
// identified by token.
type Outbound interface {
	Send(ctx context.Context, token string, msg *translator.TelegramMessage) error
}

type Runner struct {
	translator *translator.Translator
	out        Outbound
	log        zerolog.Logger

	// after stands in for time.After in tests.
	after func(time.Duration) <-chan time.Time
}

func New(tlr *translator.Translator, out Outbound, log zerolog.Logger) *Runner {
	return &Runner{
		translator: tlr,
		out:        out,
		log:        log.With().Str("component", "sequencer").Logger(),
		after:      time.After,
	}
}

// Run executes cmds in order against chatID. It blocks until the list is
// drained, a step fails, or ctx is cancelled; callers that must acknowledge
// a webhook first run it on its own goroutine. There is no checkpointing:
// progress is lost if the process dies mid-run.
func (r *Runner) Run(ctx context.Context, token, chatID string, cmds []translator.Command) error {
	for i := 0; i < len(cmds); i++ {
		cmd := cmds[i]

		switch cmd.Type {
		case translator.CommandMessage:
			if cmd.Message == nil {
				return fmt.Errorf("command %d: message command without message body", i)
			}
			tgMsg := r.translator.ToTelegram(cmd.Message, chatID)
			if tgMsg == nil {
				return fmt.Errorf("command %d: message has no telegram representation", i)
			}
			if err := r.out.Send(ctx, token, tgMsg); err != nil {
				r.log.Error().Err(err).Int("step", i).Str("chat_id", chatID).
					Msg("Command send failed, halting sequence")
				return fmt.Errorf("command %d: %w", i, err)
			}
			r.log.Debug().Int("step", i).Str("chat_id", chatID).Msg("Command message sent")

		case translator.CommandWait:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.after(time.Duration(cmd.Time) * time.Millisecond):
			}

		default:
			return fmt.Errorf("command %d: unknown command type %q", i, cmd.Type)
		}
	}

	r.log.Debug().Int("commands", len(cmds)).Str("chat_id", chatID).Msg("End of commands")
	return nil
}
