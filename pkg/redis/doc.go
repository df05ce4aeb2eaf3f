// Package redis connects to the Redis server whose Pub/Sub channels carry
// push notifications.
//
// Connect retries the initial ping according to Config, and Healthcheck
// returns a probe suitable for the notifyd health endpoint:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	source := push.NewRedisSource(client)
package redis
