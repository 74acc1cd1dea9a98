// Package autotask provides types, interfaces, and helpers for working with the
// Autotask PSA REST API.
//
// # Overview
//
// The autotask package defines the entity models (Company, Ticket, Contract,
// and so on), the generic EntityClient interface every entity is reached
// through, the entity table describing which operations each endpoint
// accepts, and the error taxonomy every call ends in. A concrete client is
// built by the atclient package, which wires zone discovery, the pooled
// transport, rate limiting, retries and performance monitoring.
//
// Getting a client
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
//	  cli, err := atclient.New(ctx, &autotask.Config{
//	    Username:        "api-user@example.com",
//	    Secret:          "secret",
//	    IntegrationCode: "TRACKING-ID",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  ticket, err := cli.Service().Tickets().Get(ctx, 12345)
//	  if err != nil { log.Fatal(err) }
//	  _ = ticket
//	}
//
// # Queries and pagination
//
// Queries are built from filters and carry a single page size, MaxRecords,
// clamped to 1..500:
//
//	q := autotask.NewQuery().
//	  Where("status", autotask.OpEq, 1).
//	  Where("companyID", autotask.OpEq, 42).
//	  WithMaxRecords(100)
//
//	it := cli.Service().Tickets().Iterate(ctx, q)
//	for it.HasNext() {
//	  ticket, err := it.Next()
//	  if err != nil { break }
//	  _ = ticket
//	}
//
// # Errors
//
// Every failure surfaces as *Error with a Kind from a closed set: Auth,
// Validation, RateLimit, NotFound, Server, Network, Configuration. Network,
// Server and RateLimit failures are retried with exponential backoff; the
// others are returned immediately. Helpers such as IsNotFound and
// IsRateLimit branch on the kind.
//
// # Child entities
//
// Entities such as TicketNotes are created under a parent:
//
//	notes := cli.Service().TicketNotes().Under(ticketID)
//	id, err := notes.Create(ctx, &autotask.TicketNote{Title: "Called customer"})
//
// Any entity in the table can be reached untyped with Client.Entity.
package autotask
