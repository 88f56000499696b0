// Package service provides the registry routing tool calls to providers.
//
// Each provider exposes a Definition (service metadata plus its tools) and
// an Execute method. Tool IDs are "service.tool" strings; the registry
// splits on the first dot and dispatches to the owning provider. This is
// the task layer: a name-to-handler lookup, nothing more.
package service
