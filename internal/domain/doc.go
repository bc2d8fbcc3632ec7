// Package domain defines the contracts shared between the bot core and its adapters.
//
// Files are organised by concept (state.go, social.go, errors.go). No implementation
// code lives here, only types and consumer-side interfaces, which keeps adapters
// and the orchestration layer free of import cycles.
package domain
