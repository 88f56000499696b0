// Package types provides shared data structures for the companion backend.
//
// This package defines core types used across all backend components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Service: Service provider definition
//   - Tool: Individual tool exposed by a service
//   - Context: Execution context for operations
//   - Result: Standard operation result
//
// Request Types:
//   - ExecuteRequest: Service tool execution
//   - MemoryAddRequest, MemorySearchRequest: Memory API
//   - ScrapeRequest, DirectorySearchRequest: Scraper and directory APIs
package types
