package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/consensus/internal/adapters/http/api"
	service "github.com/okian/consensus/internal/app"
)

const defaultTestTimeout = 5 * time.Second

func newTestMux(svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return mux
}
