package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stickerbot/internal/config"
	"stickerbot/internal/services"
)

const userAgent = "stickerbot/0.1.0"

// Service defines the operator alert surface.
type Service interface {
	NotifyStarted(ctx context.Context, platforms []string) error
	NotifyJobFailed(ctx context.Context, jobID, command string, err error) error
	NotifyStopped(ctx context.Context, processed, failed int, uptime time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		failures: cfg.Notifications.Failures,
		startup:  cfg.Notifications.Startup,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	failures bool
	startup  bool
}

func (n *ntfyService) NotifyStarted(ctx context.Context, platforms []string) error {
	if !n.startup {
		return nil
	}
	list := strings.Join(platforms, ", ")
	if list == "" {
		list = "no transports"
	}
	return n.send(ctx, payload{
		title:   "stickerbot - Started",
		message: fmt.Sprintf("Listening on %s", list),
		tags:    []string{"stickerbot", "daemon", "started"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, jobID, command string, err error) error {
	if !n.failures {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Job %s (%s) failed", shortID(jobID), strings.TrimSpace(command))
	if err != nil {
		fmt.Fprintf(&b, ": %s", strings.TrimSpace(err.Error()))
		fmt.Fprintf(&b, "\nHint: %s", services.Hint(err))
	}
	return n.send(ctx, payload{
		title:    "stickerbot - Job Failed",
		message:  b.String(),
		tags:     []string{"stickerbot", "job", services.Kind(err)},
		priority: "high",
	})
}

func (n *ntfyService) NotifyStopped(ctx context.Context, processed, failed int, uptime time.Duration) error {
	if !n.startup {
		return nil
	}
	uptime = uptime.Round(time.Second)
	if uptime < 0 {
		uptime = 0
	}
	return n.send(ctx, payload{
		title:   "stickerbot - Stopped",
		message: fmt.Sprintf("Stopped after %s: %d jobs completed, %d failed", uptime, processed, failed),
		tags:    []string{"stickerbot", "daemon", "stopped"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "stickerbot - Test",
		message:  "Notification system test",
		tags:     []string{"stickerbot", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type noopService struct{}

func (noopService) NotifyStarted(context.Context, []string) error                { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string, error) error { return nil }
func (noopService) NotifyStopped(context.Context, int, int, time.Duration) error { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
