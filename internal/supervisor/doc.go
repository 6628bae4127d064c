// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

/*
Package supervisor provides process supervision for Recensus serve mode
using suture v4.

The batch pipeline runs to completion and exits, but serve mode hosts
long-running services that must survive crashes: the reporting API and the
optional recommender retraining loop. This package arranges them in a
small supervisor tree with Erlang/OTP-style restart semantics.

# Overview

	RootSupervisor ("recensus")
	├── APISupervisor ("api-layer")
	│   └── HTTPServerService
	└── TrainingSupervisor ("training-layer")
	    └── RecommendService (if RECOMMEND_ENABLED)

The two layers fail independently: a panic in a training cycle restarts
only the training service, and the API keeps serving the snapshot. A
crashed API server restarts without touching the trained model held by
the engine.

# Key Features

Automatic Restart:
  - Crashed services are restarted with exponential backoff
  - Configurable failure thresholds and decay rates

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Supervisor events flow through slog via the sutureslog adapter
  - The slog handler bridges into the zerolog global logger, so
    supervision events land in the same stream as everything else

# Usage Example

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}

	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))
	tree.AddTrainingService(services.NewRecommendService(engine, trainCfg, logging.Logger()))

	errCh := tree.ServeBackground(ctx)
	<-sigCh // wait for SIGINT/SIGTERM
	cancel()
	err = <-errCh
*/
package supervisor
