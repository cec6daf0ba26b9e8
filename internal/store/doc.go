// Package store keeps the latest state of each poll run in memory and
// publishes every change to subscribers.
//
// The main components are:
//
//   - [Store]: storage and subscription interface
//   - [MemoryStore]: in-memory implementation with non-blocking pub/sub
//   - [Record]: storage representation of a poll run
//   - [Recorder]: adapts pollstate attempts and outcomes into records
//
// Subscribers that fall behind miss updates rather than block writers.
package store
