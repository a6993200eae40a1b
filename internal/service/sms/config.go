package sms

import (
	"fmt"

	"github.com/jmehdipour/emay-gateway/internal/config"
	"github.com/jmehdipour/emay-gateway/internal/emay"
	"go.uber.org/zap"
)

// NewFromConfig builds the gateway client from the emay section and wraps it.
func NewFromConfig(cfg config.Config, log *zap.Logger) (*Service, *emay.Client, error) {
	client, err := emay.NewClient(cfg.Emay.ClientConfig(), emay.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("emay client: %w", err)
	}

	return New(client, log, cfg.SMS.SignName), client, nil
}
