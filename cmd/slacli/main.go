package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slacli triggers an on-demand breach scan through the worker's job queue and
// reports its completion status.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: slacli scan|status <job_id>")
		return
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	switch os.Args[1] {
	case "scan":
		jobID := uuid.New().String()
		data, _ := json.Marshal(struct {
			ID string `json:"id"`
		}{jobID})
		jb, _ := json.Marshal(struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}{"breach_scan", data})
		_ = rdb.RPush(ctx, "jobs", jb).Err()
		fmt.Println(jobID)
	case "status":
		if len(os.Args) < 3 {
			fmt.Println("job id required")
			return
		}
		val, err := rdb.Get(ctx, "breach_scan:"+os.Args[2]).Result()
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Println(val)
	default:
		fmt.Println("unknown command")
	}
}
