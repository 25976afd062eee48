// Package worker implements the render worker lifecycle and Redis Streams integration.
//
// The worker subscribes to Redis Streams for render requests, renders the
// requested bridges with a request scoped engine and manager, and publishes
// the markup to a result stream.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(cfg.RedisOptions())
//	renderer := worker.NewRenderer(worker.RendererConfig{
//	    Registry: registry,
//	    Paths:    cfg.Paths(),
//	}, logger)
//
//	worker := worker.NewWorker(cfg, redisClient, renderer, logger)
//	if err := worker.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer worker.Stop(10 * time.Second)
//
// Requests are JSON documents under the "data" field of a stream entry:
//
//	{"request_id": "r1", "script": "/users/list.php",
//	 "variables": {"title": "Users"}, "bridges": ["AdminBase", "UsersList"]}
//
// Results go to RESULT_STREAM; failures go to RESULT_STREAM + ".errors".
// Every message is acknowledged.
package worker
