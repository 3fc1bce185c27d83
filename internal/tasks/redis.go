package tasks

import (
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/iquiquesec/ciberseguridad/config"
)

// RedisConnOpt turns the redis settings into asynq connection options. A URI
// takes precedence over the discrete fields.
func RedisConnOpt(cfg config.RedisConfig) (asynq.RedisConnOpt, error) {
	if cfg.URI != "" {
		opt, err := asynq.ParseRedisURI(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis uri: %w", err)
		}
		return opt, nil
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.Host + ":" + cfg.Port,
		Username: cfg.User,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}
