// Package config provides configuration management for the template renderer.
//
// Configuration is loaded from environment variables and validated on startup.
// All configuration options have sensible defaults for development.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg)
//
//	paths := cfg.Paths()    // template layout for bridge managers
//	rules := cfg.Rules()    // PREFIX_RULES, e.g. "/admin/,/mypage/=Member"
//	redis.NewClient(cfg.RedisOptions())
package config
