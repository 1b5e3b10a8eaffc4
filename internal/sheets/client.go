package sheets

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

type Options struct {
	// Breaker wraps the upstream transport in a circuit breaker.
	Breaker        bool
	BreakerTimeout time.Duration
	Logger         zerolog.Logger
}

// Client talks to Google Sheets and Google Drive with service account
// credentials. It is safe for concurrent use.
type Client struct {
	srv   *sheetsv4.Service
	drive *drivev3.Service
	log   zerolog.Logger
}

var _ Remote = (*Client)(nil)

// New builds a Client from a service account JSON key. The drive scope
// covers both listing files and editing their cells.
func New(ctx context.Context, credentialsJSON []byte, opts Options) (*Client, error) {
	jwt, err := google.JWTConfigFromJSON(credentialsJSON, drivev3.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	hc := jwt.Client(ctx)
	if opts.Breaker {
		hc = &http.Client{
			Transport: newBreakerTransport("google-sheets", opts.BreakerTimeout, hc.Transport, opts.Logger),
		}
	}

	srv, err := sheetsv4.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	drv, err := drivev3.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Client{srv: srv, drive: drv, log: opts.Logger}, nil
}
