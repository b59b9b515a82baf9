package devstore

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server is the in-process reference implementation of the store
// contract: the REST endpoints plus the room-scoped live channel. It
// backs local development and the test suite; production deployments
// point the client at the real store instead.
type Server struct {
	Repo *Repository
	Hub  *Hub

	echo   *echo.Echo
	cancel context.CancelFunc
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer() *Server {
	repo := NewRepository()
	hub := NewHub(repo)

	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.Use(middleware.Recover())

	h := &handlers{repo: repo, hub: hub}

	e.POST("/conversations", h.createConversation)
	e.GET("/conversations/:id", h.getConversation)
	e.GET("/conversations/user/:userId", h.listConversationsByUser)
	e.GET("/conversations/seller/:sellerId", h.listConversationsBySeller)
	e.GET("/conversations/last-message/:conversationId", h.lastMessage)
	e.POST("/messages", h.createMessage)
	e.GET("/messages/:id", h.getMessage)
	e.GET("/messages/conversation/:conversationId", h.listMessages)
	e.GET("/ws", h.serveWS)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	return &Server{
		Repo:   repo,
		Hub:    hub,
		echo:   e,
		cancel: cancel,
	}
}

// Echo exposes the router for httptest servers.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start(port string) error {
	return s.echo.Start(":" + port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.echo.Shutdown(ctx)
}
