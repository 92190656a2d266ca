// Package posiflow is the REST client for the Posiflow platform API: posting
// channel messages into tenant conversations, managing outbound event
// subscriptions and listing departments for routing.
package posiflow

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/store"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/translator"
)

// SubscriptionEvent is the Posiflow event this connector subscribes to.
const SubscriptionEvent = "message.create.request.channel.telegram"

const requestTimeout = 30 * time.Second

// Subscription is the server's record of a webhook subscription.
type Subscription struct {
	ID     string `json:"_id"`
	Secret string `json:"secret"`
}

type Department struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Default bool   `json:"default,omitempty"`
}

// MessageInfo identifies the remote party a message is posted on behalf of.
type MessageInfo struct {
	From      string `json:"from"`
	FirstName string `json:"firstname,omitempty"`
	LastName  string `json:"lastname,omitempty"`
}

type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

func NewClient(apiURL string, log zerolog.Logger) *Client {
	return &Client{
		http: resty.New().SetBaseURL(apiURL).SetTimeout(requestTimeout),
		log:  log.With().Str("component", "posiflow").Logger(),
	}
}

type outboundMessage struct {
	*translator.ChannelMessage
	DepartmentID string       `json:"department_id,omitempty"`
	Telegram     *MessageInfo `json:"telegram,omitempty"`
}

// SendMessage posts a translated message into the tenant conversation bound
// to info.From, routed to the tenant's configured department.
func (c *Client) SendMessage(ctx context.Context, settings *store.Settings, msg *translator.ChannelMessage, info MessageInfo) error {
	requestID := fmt.Sprintf("support-group-%s-%s-%s", settings.ProjectID, translator.ChannelName, info.From)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "JWT "+settings.Token).
		SetBody(outboundMessage{
			ChannelMessage: msg,
			DepartmentID:   settings.DepartmentID,
			Telegram:       &info,
		}).
		Post(fmt.Sprintf("/%s/requests/%s/messages", settings.ProjectID, requestID))
	if err != nil {
		return fmt.Errorf("failed to send message to posiflow: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("posiflow message rejected: %s", resp.Status())
	}

	c.log.Debug().Str("request_id", requestID).Msg("Message sent to Posiflow")
	return nil
}

// Subscribe registers target as a webhook for channel message events and
// returns the subscription id and signing secret.
func (c *Client) Subscribe(ctx context.Context, projectID, token, target string) (*Subscription, error) {
	var sub Subscription
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "JWT "+token).
		SetBody(map[string]string{
			"target": target,
			"event":  SubscriptionEvent,
		}).
		SetResult(&sub).
		Post(fmt.Sprintf("/%s/subscriptions", projectID))
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("subscription rejected: %s", resp.Status())
	}

	c.log.Info().Str("project_id", projectID).Str("subscription_id", sub.ID).
		Msg("Subscribed to channel events")
	return &sub, nil
}

func (c *Client) Unsubscribe(ctx context.Context, projectID, token, subscriptionID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "JWT "+token).
		Delete(fmt.Sprintf("/%s/subscriptions/%s", projectID, subscriptionID))
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("unsubscribe rejected: %s", resp.Status())
	}

	c.log.Info().Str("project_id", projectID).Str("subscription_id", subscriptionID).
		Msg("Unsubscribed from channel events")
	return nil
}

func (c *Client) GetDepartments(ctx context.Context, projectID, token string) ([]Department, error) {
	var departments []Department
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "JWT "+token).
		SetResult(&departments).
		Get(fmt.Sprintf("/%s/departments", projectID))
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("departments request rejected: %s", resp.Status())
	}
	return departments, nil
}
