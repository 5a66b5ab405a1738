// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extensions

// ServiceOptions carries pluggable implementations into the gateway.
//
// # Description
//
// The open-source build runs with DefaultOptions(). Downstream
// distributions inject their own implementations (SSO-backed token
// validation, audited providers) without forking the service wiring.
//
// # Fields
//
//   - AuthProvider: Token validation. Nil selects the gateway's own
//     choice: the bundled JWT validator when a signing secret is
//     configured, otherwise the no-op provider.
type ServiceOptions struct {
	AuthProvider AuthProvider
}

// DefaultOptions returns ServiceOptions with no-op implementations.
func DefaultOptions() ServiceOptions {
	return ServiceOptions{
		AuthProvider: &NopAuthProvider{},
	}
}
