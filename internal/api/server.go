package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/RazaAli313/clubchat/internal/auth"
	"github.com/RazaAli313/clubchat/internal/config"
	"github.com/RazaAli313/clubchat/internal/domain"
	"github.com/RazaAli313/clubchat/internal/metrics"
	"github.com/RazaAli313/clubchat/internal/service"
	"github.com/RazaAli313/clubchat/internal/ws"
)

type Server struct {
	app *fiber.App
}

func NewServer(cfg *config.Config, svc *service.ChatService, hub *ws.Hub, verifier *auth.Verifier, rdb *redis.Client, log *zap.SugaredLogger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	limiter := NewRateLimiter(rdb, cfg.Redis.Prefix, cfg.RateLimit.PerMinute, cfg.RateLimitWindow())
	h := NewChatHandler(svc, cfg.RequestTimeout, log)

	api := app.Group("/api/v1",
		limiter.Middleware(func(c *fiber.Ctx) string { return c.IP() }),
		JWTAuth(verifier),
	)
	chat := api.Group("/chat")
	chat.Get("/participants", h.ListParticipants)
	chat.Post("/conversations", h.GetOrCreateConversation)
	chat.Get("/conversations/:id/messages", h.ListMessages)
	chat.Post("/conversations/:id/messages", h.AppendMessage)

	app.Get("/ws/conversations/:id", websocket.New(func(conn *websocket.Conn) {
		id := domain.ConversationID(conn.Params("id"))
		if !wsAllowed(verifier, id, conn.Query("token")) {
			_ = conn.Close()
			return
		}
		ws.NewClient(conn).Serve(hub, id)
	}))

	return &Server{app: app}
}

// wsAllowed gates the live feed the same way the REST routes are gated:
// the conversation id must be present and the bearer token must verify
// and identify a subject.
func wsAllowed(verifier *auth.Verifier, id domain.ConversationID, token string) bool {
	if id == "" || token == "" {
		return false
	}
	claims, err := verifier.VerifyToken(token)
	if err != nil {
		return false
	}
	_, ok := auth.GetStringClaim(claims, "sub")
	return ok
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
