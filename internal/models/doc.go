// Package models defines domain entities and persistence interfaces for ytsync.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): lightweight structs describing remote platform data
//   - [PlaylistDescriptor] : id, title and description of a playlist
//   - [PlaylistItem] : one entry of a playlist, referencing a video
//   - [ItemPage] / [PlaylistPage] : one page of a paginated listing
//   - [VideoIDSet] : insertion-ordered set of video IDs built during a run
//
// 2. Persistent Entities: database-backed models
//   - [Token] : OAuth2 token for a provider
//
// Persistent entities implement the [Model] interface and are stored through a [Repository].
package models
