// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package oracle

import "errors"

// Sentinel errors for the oracle package.
var (
	// ErrEmptySecret indicates a secret with no letters.
	ErrEmptySecret = errors.New("empty secret")

	// ErrSecretTooLong indicates a secret above MaxSecretLength.
	ErrSecretTooLong = errors.New("secret too long")

	// ErrInvalidSecret indicates a secret with letters outside the alphabet.
	ErrInvalidSecret = errors.New("secret contains invalid letters")

	// ErrInvalidAlphabet indicates a malformed alphabet.
	ErrInvalidAlphabet = errors.New("invalid alphabet")

	// ErrOracleClosed indicates use of an oracle after Close.
	ErrOracleClosed = errors.New("oracle closed")

	// ErrSecureMemory indicates the secret could not be placed in locked
	// memory and the insecure fallback was not enabled.
	ErrSecureMemory = errors.New("secure memory unavailable")
)
