// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history provides the durable conversation log.
//
// The gateway treats history as an append-only collaborator: sessions
// read the most recent records at construction time to seed their
// window, and (when persistence is enabled) append completed cycles in
// the background. Nothing in the gateway ever updates or reorders a
// record.
package history

import (
	"context"

	"github.com/AleutianAI/AleutianChat/services/gateway/datatypes"
)

// Store is the durable chat history consumed by the gateway.
//
// Implementations must be safe for concurrent use from many sessions.
type Store interface {
	// QueryRecent returns at most limit records for the principal,
	// ordered newest-first. A principal with no history returns an
	// empty slice, not an error.
	QueryRecent(ctx context.Context, principalID string, limit int) ([]datatypes.ChatRecord, error)

	// Append durably adds one completed conversation cycle.
	Append(ctx context.Context, record datatypes.ChatRecord) error

	// DeleteAll removes every record belonging to the principal.
	DeleteAll(ctx context.Context, principalID string) error
}
