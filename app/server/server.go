package server

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
	"maxbot/app/config"
	"maxbot/app/service/leadgate"
	"maxbot/app/service/orchestrator"
	"maxbot/app/service/sessions"
)

// Server is the small operational HTTP surface: a liveness probe,
// qualification statistics and an administrative conversation reset.
type Server struct {
	app      *fiber.App
	addr     string
	sessions *sessions.Service
	orch     *orchestrator.Service
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	result := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		addr:     cfg.HTTP.Addr,
		sessions: do.MustInvoke[*sessions.Service](di),
		orch:     do.MustInvoke[*orchestrator.Service](di),
	}

	result.app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Server is running 🚀")
	})
	result.app.Get("/statistics", result.handleStatistics)
	result.app.Post("/users/:id/reset", result.handleReset)

	return result, nil
}

func (s *Server) handleStatistics(c *fiber.Ctx) error {
	totals, err := s.sessions.Totals(c.Context())
	if err != nil {
		slog.Error("Failed to load statistics", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load statistics")
	}

	return c.JSON(totals)
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	if _, err := s.orch.ResetUser(c.Context(), userID, leadgate.ProfileHint{}); err != nil {
		slog.Error("Failed to reset conversation",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reset conversation")
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.app.Shutdown()
	}()

	slog.Info("HTTP server started", slog.String("addr", s.addr))

	if err := s.app.Listen(s.addr); err != nil && !errors.Is(err, context.Canceled) {
		return oops.Wrapf(err, "http server failed")
	}

	return nil
}
