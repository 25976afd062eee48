package main

import (
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aescanero/dago-template-bridge/internal/worker"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check Redis and the template tree, printing the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup("stderr")
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			root, err := a.cfg.Paths().TemplateRoot()
			if err != nil {
				return err
			}

			redisClient := redis.NewClient(a.cfg.RedisOptions())
			defer redisClient.Close()

			resp := worker.NewHealthChecker(redisClient, root, a.logger).Check(cmd.Context())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
			if !resp.Healthy() {
				return fmt.Errorf("%s", resp.Status)
			}
			return nil
		},
	}
}
