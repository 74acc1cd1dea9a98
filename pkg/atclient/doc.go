// Package atclient provides the primary entry point for constructing an
// Autotask PSA REST API client that implements the autotask.Client interface.
//
// It layers zone discovery, authentication headers, retries, rate limiting
// and the optional hourly quota on top of the entity interfaces and types
// defined in the autotask package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/autotask-client/pkg/atclient"
//	  "github.com/fivetwenty-io/autotask-client/pkg/autotask"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // The zone is discovered from the username.
//	  cli, err := atclient.New(ctx, &autotask.Config{
//	    Username:        "api-user@example.com",
//	    Secret:          "secret",
//	    IntegrationCode: "TRACKINGCODE",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  page, err := cli.Service().Tickets().Query(ctx,
//	    autotask.NewQuery().Where("status", autotask.OpEq, 1).WithMaxRecords(50))
//	  if err != nil { log.Fatal(err) }
//	  _ = page
//	}
//
// # Hourly quota
//
// Autotask limits each database to a number of requests per hour across all
// integrations. Set Config.QuotaStore to stop sending before the limit is hit:
// NewMemoryQuotaStore for one process, NewSQLiteQuotaStore for processes on
// one host, or NewRedisQuotaStore across hosts.
//
// # Logging
//
// Config.Logger accepts any autotask.Logger. NewZapLogger and NewSlogLogger
// adapt existing loggers.
package atclient
