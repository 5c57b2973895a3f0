// Package notify envía avisos posteriores al Commit (SMS) sin bloquear al llamador.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/farms-ledger/pkg/config"
	"github.com/jhoicas/farms-ledger/pkg/logger"
)

// Sender puerto de salida de un mensaje de texto. Para tests se puede inyectar un mock.
type Sender interface {
	Send(ctx context.Context, numbers []string, message string) error
}

// TextlocalSender envía SMS con la API HTTP de Textlocal (form POST).
// Usa net/http de la stdlib; no requiere librerías de terceros.
type TextlocalSender struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	sender     string
}

// NewTextlocalSender construye el cliente con el timeout configurado.
func NewTextlocalSender(cfg config.SMSConfig) *TextlocalSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TextlocalSender{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.URL,
		apiKey:     cfg.APIKey,
		sender:     cfg.Sender,
	}
}

type textlocalResponse struct {
	Status string `json:"status"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Send publica el mensaje. Error si la API responde distinto de 2xx o con status "failure".
func (s *TextlocalSender) Send(ctx context.Context, numbers []string, message string) error {
	if len(numbers) == 0 {
		return nil
	}
	form := url.Values{}
	form.Set("apikey", s.apiKey)
	form.Set("numbers", strings.Join(numbers, ","))
	form.Set("sender", s.sender)
	form.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: enviar: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("sms: leer respuesta: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed textlocalResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("sms: respuesta inválida: %w", err)
	}
	if parsed.Status != "success" {
		if len(parsed.Errors) > 0 {
			return fmt.Errorf("sms: rechazado (%d): %s", parsed.Errors[0].Code, parsed.Errors[0].Message)
		}
		return fmt.Errorf("sms: rechazado (status=%q)", parsed.Status)
	}
	return nil
}

// LogSender solo registra el mensaje en el log (desarrollo, SMS deshabilitado).
type LogSender struct {
	log *logger.Logger
}

// NewLogSender construye el sender de log.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send registra el aviso en nivel debug.
func (s *LogSender) Send(_ context.Context, numbers []string, message string) error {
	s.log.Debug().Strs("numbers", numbers).Str("message", message).Msg("sms (solo log)")
	return nil
}
