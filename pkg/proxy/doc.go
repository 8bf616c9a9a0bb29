// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package proxy exposes the local CRUD surface for the users table. Each
// route validates the inbound shape, forwards a single call to the
// Backendless table, and normalizes the reply so callers always see JSON,
// even when the upstream answers with an empty body.
package proxy
