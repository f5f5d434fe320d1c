package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"editstate/internal/session"
)

type Server struct {
	session *session.Session
	mcp     *sdk.Server
}

func NewServer(sess *session.Session, version string) *Server {
	s := &Server{
		session: sess,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "editstate",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
