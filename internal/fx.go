// Package internal wires the IAM domain on top of the core engine: event
// sourced repositories, command and query handlers, the projection catch-up
// engine, and the casbin-backed authorizer.
package internal

import (
	"github.com/nexusiam/iamcore/internal/application"
	"github.com/nexusiam/iamcore/internal/application/authz"
	"github.com/nexusiam/iamcore/internal/application/projection"
	"github.com/nexusiam/iamcore/internal/infrastructure"
	"go.uber.org/fx"
)

// Module is the top-level IAM module cmd/iamcore appends alongside
// pkg.Module. It must never be imported by anything under pkg/ — the core
// engine stays domain-agnostic.
var Module = fx.Options(
	infrastructure.RepositoryModule,
	application.Module,
	application.QueryModule,
	projection.Module,
	authz.Module,
)
