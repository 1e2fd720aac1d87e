package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	errx "github.com/line-dify-relay/server/internal/core/error"
	"github.com/line-dify-relay/server/internal/relay/line"
	logx "github.com/line-dify-relay/server/pkg/logger"
)

// Server hosts the webhook endpoint the chat platform delivers to.
type Server struct {
	echo          *echo.Echo
	port          int
	channelSecret string
	handler       *Handler
}

func NewServer(port int, channelSecret string, handler *Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:          e,
		port:          port,
		channelSecret: channelSecret,
		handler:       handler,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.POST("/", s.WebhookHandler)
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// WebhookHandler verifies and dispatches one webhook delivery. Once the
// signature checks out the delivery is acknowledged with 200 regardless of
// what happens downstream; the platform retries unacknowledged deliveries
// and the reply token could not be reused anyway.
func (s *Server) WebhookHandler(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable body"})
	}

	// Raw payload only at debug level: it contains user message text.
	logx.Debug().Bytes("body", body).Msg("webhook delivery received")

	signature := c.Request().Header.Get("X-Line-Signature")
	if err := line.VerifySignature(s.channelSecret, body, signature); err != nil {
		appErr := errx.WrapSignature(err)
		logx.Error().Err(appErr).Msg("rejecting webhook delivery, check the channel secret")
		return c.JSON(appErr.Status, map[string]string{"error": appErr.Message})
	}

	messages, err := line.ParseWebhook(body)
	if err != nil {
		// Authenticated but undecodable: acknowledge so the platform does
		// not redeliver a payload we will never be able to parse.
		logx.Error().Err(err).Msg("failed to parse webhook payload")
		return c.String(http.StatusOK, "OK")
	}

	ctx := c.Request().Context()
	for _, msg := range messages {
		s.handler.Handle(ctx, msg)
	}

	return c.String(http.StatusOK, "OK")
}

// Start begins listening. It blocks until the listener stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	logx.Info().Str("addr", addr).Msg("starting webhook server")
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
