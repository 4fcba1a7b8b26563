// Package function holds the application code behind the validated handler.
// Replace Run with the function for your app.
package function

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the example payload returned by Run
type Status struct {
	Message string          `json:"message"`
	Version string          `json:"version"`
	Uptime  decimal.Decimal `json:"uptimeSeconds"`
}

var (
	started = time.Now()
	// Version is set at build time with -ldflags "-X originfunc/pkg/function.Version=..."
	Version = "dev"
)

// Run is the example function. It reports how long the container has been warm.
func Run(ctx context.Context) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uptime := decimal.NewFromFloat(time.Since(started).Seconds()).Round(3)
	return Status{
		Message: "Hello from " + Version,
		Version: Version,
		Uptime:  uptime,
	}, nil
}
