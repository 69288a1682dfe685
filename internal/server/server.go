package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ipynbsrv/coco/internal/logging"
)

func Start(ctx context.Context, listen string, handler http.Handler) error {
	server := http.Server{
		Addr:         listen,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     log.New(httpLogger{logger: logging.L(ctx)}, "", 0),
	}

	return server.ListenAndServe()
}

type httpLogger struct {
	logger *zap.SugaredLogger
}

func (l httpLogger) Write(data []byte) (n int, err error) {
	size := len(data)
	if size != 0 && data[size-1] == '\n' {
		data = data[:size-1]
	}

	l.logger.Errorf("HTTP server: %s", data)
	return size, nil
}
