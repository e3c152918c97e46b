// Package push notifies mobile clients about scan processing through
// FCM. Notifications are fire-and-forget: a delivery failure is logged
// and never fails the pipeline that triggered it.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultEndpoint = "https://fcm.googleapis.com/fcm/send"

// Notifier sends push messages via the FCM HTTP API.
type Notifier struct {
	serverKey string
	endpoint  string
	http      *http.Client
	log       *zap.Logger
}

// New builds a Notifier. An empty server key yields a disabled notifier
// whose sends are silent no-ops, so callers never need the nil check.
func New(serverKey string, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		serverKey: serverKey,
		endpoint:  defaultEndpoint,
		http:      &http.Client{Timeout: 10 * time.Second},
		log:       log,
	}
}

// Enabled reports whether a server key is configured.
func (n *Notifier) Enabled() bool { return n.serverKey != "" }

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound"`
}

type message struct {
	To           string            `json:"to"`
	Priority     string            `json:"priority"`
	Notification notification      `json:"notification"`
	Data         map[string]string `json:"data"`
}

// Processing tells the user their upload was accepted and is being
// worked on.
func (n *Notifier) Processing(ctx context.Context, token, userID, jobID string) {
	n.send(ctx, message{
		To:       token,
		Priority: "high",
		Notification: notification{
			Title: "Procesando Encuesta",
			Body:  "Analizando imagen y detectando respuestas...",
			Sound: "default",
		},
		Data: map[string]string{
			"type":      "processing",
			"user_id":   userID,
			"job_id":    jobID,
			"status":    "processing",
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// Success reports a completed submission.
func (n *Notifier) Success(ctx context.Context, token, userID, entryID string, responsesSent int) {
	n.send(ctx, message{
		To:       token,
		Priority: "high",
		Notification: notification{
			Title: "Encuesta Procesada",
			Body:  fmt.Sprintf("Respuestas enviadas exitosamente para entrega %s...", shortID(entryID)),
			Sound: "default",
		},
		Data: map[string]string{
			"type":           "ocr_success",
			"user_id":        userID,
			"entrega_id":     entryID,
			"responses_sent": fmt.Sprintf("%d", responsesSent),
			"status":         "completed",
			"timestamp":      time.Now().Format(time.RFC3339),
		},
	})
}

// Failure reports a processing error, truncated to fit a notification.
func (n *Notifier) Failure(ctx context.Context, token, userID, step, errMsg string) {
	n.send(ctx, message{
		To:       token,
		Priority: "high",
		Notification: notification{
			Title: "Error en Procesamiento",
			Body:  fmt.Sprintf("No se pudo procesar la encuesta. Error: %s", truncate(errMsg, 50)),
			Sound: "default",
		},
		Data: map[string]string{
			"type":        "ocr_error",
			"user_id":     userID,
			"step_failed": step,
			"error":       errMsg,
			"status":      "failed",
			"timestamp":   time.Now().Format(time.RFC3339),
		},
	})
}

func (n *Notifier) send(ctx context.Context, msg message) {
	if !n.Enabled() || msg.To == "" {
		return
	}

	body, err := json.Marshal(msg)
	if err != nil {
		n.log.Warn("encoding push message", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		n.log.Warn("building push request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+n.serverKey)

	resp, err := n.http.Do(req)
	if err != nil {
		n.log.Warn("sending push notification", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.log.Warn("push notification rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("type", msg.Data["type"]))
		return
	}
	n.log.Info("push notification sent",
		zap.String("type", msg.Data["type"]),
		zap.String("user_id", msg.Data["user_id"]))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
