// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

/*
Package services provides suture.Service wrappers for Recensus components.

This package adapts long-running application components to the suture v4
supervision model, translating their native lifecycle patterns
(ListenAndServe/Shutdown, periodic training loops) into suture's
context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation to the Serve pattern
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Recommendation Trainer (RecommendService):
  - Retrains the recommendation engine on a configurable schedule
  - Optionally trains once at startup before entering the loop
  - Training failures are logged, not propagated, so a bad training
    run never takes down the service

# Usage Example

Creating and registering services:

	import (
	    "net/http"
	    "time"

	    "github.com/tomtom215/recensus/internal/supervisor"
	    "github.com/tomtom215/recensus/internal/supervisor/services"
	)

	func setupSupervisor(server *http.Server, engine *recommend.Engine) {
	    tree, _ := supervisor.NewSupervisorTree(logger, config)

	    // HTTP server with 10s shutdown timeout
	    httpSvc := services.NewHTTPServerService(server, 10*time.Second)
	    tree.AddAPIService(httpSvc)

	    // Periodic model training
	    trainSvc := services.NewRecommendService(engine, trainCfg, zlog)
	    tree.AddTrainingService(trainSvc)

	    // Start supervision
	    tree.Serve(ctx)
	}

# Lifecycle Patterns

The package handles two lifecycle patterns:

ListenAndServe Pattern:

	type Listener interface {
	    ListenAndServe() error
	    Shutdown(ctx context.Context) error
	}

	// Wrapped as:
	func (s *Service) Serve(ctx context.Context) error {
	    go s.server.ListenAndServe()
	    <-ctx.Done()
	    return s.server.Shutdown(shutdownCtx)
	}

Ticker Pattern:

	// Wrapped as:
	func (s *Service) Serve(ctx context.Context) error {
	    ticker := time.NewTicker(s.interval)
	    defer ticker.Stop()
	    for {
	        select {
	        case <-ticker.C:
	            s.doWork(ctx)
	        case <-ctx.Done():
	            return ctx.Err()
	        }
	    }
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# Service Identification

All services implement fmt.Stringer for logging:

	func (s *HTTPServerService) String() string {
	    return "http-server"
	}

Suture uses this for log messages:

	INFO http-server: starting
	INFO http-server: stopped
	ERROR http-server: restarting after failure

# Thread Safety

All service wrappers are safe for concurrent use:
  - State is protected by mutexes where needed
  - Context cancellation is handled atomically
  - Multiple Serve calls are not supported (undefined behavior)

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
  - internal/recommend: Recommendation engine implementation
*/
package services
