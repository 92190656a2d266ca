package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/posiflow"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/store"
)

type detailPage struct {
	AppVersion string
	BrandName  string
	ProjectID  string
	Token      string
	AppID      string
	Installed  bool
}

type configurePage struct {
	AppVersion      string
	BrandName       string
	ProjectID       string
	Token           string
	BotName         string
	TelegramToken   string
	SubscriptionID  string
	DepartmentID    string
	ShowInfoMessage bool
	Departments     []posiflow.Department
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	token := r.URL.Query().Get("token")
	appID := r.URL.Query().Get("app_id")

	installation, err := s.apps.GetInstallation(r.Context(), projectID, appID)
	if err != nil {
		s.log.Error().Err(err).Str("project_id", projectID).Msg("Installation lookup failed")
	}

	s.render(w, "detail.html", detailPage{
		AppVersion: Version,
		BrandName:  s.cfg.BrandName,
		ProjectID:  projectID,
		Token:      token,
		AppID:      appID,
		Installed:  installation != nil,
	})
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	projectID := r.FormValue("project_id")
	appID := r.FormValue("app_id")
	token := r.FormValue("token")

	if _, err := s.apps.Install(r.Context(), projectID, appID); err != nil {
		s.log.Error().Err(err).Str("project_id", projectID).Msg("Installation failed")
		s.renderError(w, "An error occurred during the installation")
		return
	}

	s.log.Info().Str("project_id", projectID).Str("app_id", appID).Msg("App installed")
	s.render(w, "detail.html", detailPage{
		AppVersion: Version,
		BrandName:  s.cfg.BrandName,
		ProjectID:  projectID,
		Token:      token,
		AppID:      appID,
		Installed:  true,
	})
}

func (s *Server) handleUninstall(w http.ResponseWriter, r *http.Request) {
	projectID := r.FormValue("project_id")
	appID := r.FormValue("app_id")
	token := r.FormValue("token")

	if err := s.apps.Uninstall(r.Context(), projectID, appID); err != nil {
		s.log.Error().Err(err).Str("project_id", projectID).Msg("Uninstallation failed")
		s.renderError(w, "An error occurred during the uninstallation")
		return
	}

	s.log.Info().Str("project_id", projectID).Str("app_id", appID).Msg("App uninstalled")
	s.render(w, "detail.html", detailPage{
		AppVersion: Version,
		BrandName:  s.cfg.BrandName,
		ProjectID:  projectID,
		Token:      token,
		AppID:      appID,
		Installed:  false,
	})
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	token := r.URL.Query().Get("token")
	if projectID == "" || token == "" {
		s.renderError(w, "Query params project_id and token are required.")
		return
	}

	page := configurePage{
		AppVersion: Version,
		BrandName:  s.cfg.BrandName,
		ProjectID:  projectID,
		Token:      token,
	}

	settings, err := s.settings.Get(r.Context(), projectID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Error().Err(err).Str("project_id", projectID).Msg("Settings lookup failed")
	}
	if settings != nil {
		page.BotName = settings.BotName
		page.TelegramToken = settings.TelegramToken
		page.SubscriptionID = settings.SubscriptionID
		page.DepartmentID = settings.DepartmentID
		page.ShowInfoMessage = settings.ShowInfoMessage
	}

	page.Departments, err = s.channel.GetDepartments(r.Context(), projectID, token)
	if err != nil {
		s.log.Warn().Err(err).Str("project_id", projectID).Msg("Unable to get departments")
	}

	s.render(w, "configure.html", page)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	projectID := r.FormValue("project_id")
	token := r.FormValue("token")
	telegramToken := r.FormValue("telegram_token")
	botName := r.FormValue("bot_name")
	departmentID := r.FormValue("department")

	ctx := r.Context()
	log := s.log.With().Str("project_id", projectID).Logger()

	settings, err := s.settings.Get(ctx, projectID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Msg("Settings lookup failed")
		s.renderError(w, "An error occurred while saving the configuration")
		return
	}

	if settings == nil {
		// First connect: subscribe to channel events, register the Telegram
		// webhook, then persist the tenant record.
		sub, err := s.channel.Subscribe(ctx, projectID, token, s.cfg.BaseURL+"/channel")
		if err != nil {
			log.Error().Err(err).Msg("Subscription failed")
			s.renderError(w, "An error occurred while connecting the bot")
			return
		}

		webhookURL := fmt.Sprintf("%s/telegram?project_id=%s", s.cfg.BaseURL, projectID)
		if err := s.webhooks.RegisterWebhook(ctx, telegramToken, webhookURL); err != nil {
			log.Error().Err(err).Msg("Webhook registration failed")
			s.renderError(w, "An error occurred while connecting the bot")
			return
		}

		settings = &store.Settings{
			ProjectID:      projectID,
			Token:          token,
			SubscriptionID: sub.ID,
			Secret:         sub.Secret,
			BotName:        botName,
			TelegramToken:  telegramToken,
			DepartmentID:   departmentID,
			AppVersion:     Version,
		}
		log.Info().Str("bot_name", botName).Msg("Tenant connected")
	} else {
		settings.BotName = botName
		settings.TelegramToken = telegramToken
		settings.DepartmentID = departmentID
		log.Info().Str("bot_name", botName).Msg("Tenant reconfigured")
	}

	if err := s.settings.Set(ctx, projectID, settings); err != nil {
		log.Error().Err(err).Msg("Settings save failed")
		s.renderError(w, "An error occurred while saving the configuration")
		return
	}

	departments, err := s.channel.GetDepartments(ctx, projectID, token)
	if err != nil {
		log.Warn().Err(err).Msg("Unable to get departments")
	}

	s.render(w, "configure.html", configurePage{
		AppVersion:      Version,
		BrandName:       s.cfg.BrandName,
		ProjectID:       projectID,
		Token:           token,
		BotName:         settings.BotName,
		TelegramToken:   settings.TelegramToken,
		SubscriptionID:  settings.SubscriptionID,
		DepartmentID:    settings.DepartmentID,
		ShowInfoMessage: settings.ShowInfoMessage,
		Departments:     departments,
	})
}

func (s *Server) handleUpdateAdvanced(w http.ResponseWriter, r *http.Request) {
	projectID := r.FormValue("project_id")
	showInfo := r.FormValue("show_info_message") == "on"

	settings, err := s.settings.Get(r.Context(), projectID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error().Err(err).Str("project_id", projectID).Msg("Settings lookup failed")
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	settings.ShowInfoMessage = showInfo
	if err := s.settings.Set(r.Context(), projectID, settings); err != nil {
		s.log.Error().Err(err).Str("project_id", projectID).Msg("Settings save failed")
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	projectID := r.FormValue("project_id")
	token := r.FormValue("token")
	subscriptionID := r.FormValue("subscriptionId")

	ctx := r.Context()
	log := s.log.With().Str("project_id", projectID).Logger()

	telegramToken := ""
	settings, err := s.settings.Get(ctx, projectID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Msg("Settings lookup failed")
	}
	if settings != nil {
		telegramToken = settings.TelegramToken
		if err := s.settings.Remove(ctx, projectID); err != nil {
			log.Error().Err(err).Msg("Settings delete failed")
		}
	}

	if err := s.channel.Unsubscribe(ctx, projectID, token, subscriptionID); err != nil {
		log.Error().Err(err).Msg("Unsubscribe failed")
	}
	if telegramToken != "" {
		if err := s.webhooks.DeregisterWebhook(ctx, telegramToken); err != nil {
			log.Error().Err(err).Msg("Webhook removal failed")
		}
	}

	log.Info().Msg("Tenant disconnected")

	departments, err := s.channel.GetDepartments(ctx, projectID, token)
	if err != nil {
		log.Warn().Err(err).Msg("Unable to get departments")
	}

	s.render(w, "configure.html", configurePage{
		AppVersion:  Version,
		BrandName:   s.cfg.BrandName,
		ProjectID:   projectID,
		Token:       token,
		Departments: departments,
	})
}
