// Package models defines domain entities and persistence interfaces for the PullSense client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from backend responses and push frames
//   - [Dashboard] : PR overview with analysis counters
//   - [Stats] : backend statistics, including whether AI analysis is enabled
//   - [PRAnalysis] : a pull request with its latest AI review
//   - [PushMessage] : a typed event from the live update channel
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Session] : locally stored login state whose token is attached to requests
//
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
