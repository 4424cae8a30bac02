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

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/awnumar/memguard"
	"golang.org/x/sys/unix"
)

const (
	// minMlockKB is the mlock headroom required before the secret is placed
	// in a memguard buffer. memguard rounds tiny allocations up to whole
	// pages and adds guard pages on both sides.
	minMlockKB = 64

	// insecureMemoryEnv opts in to holding the secret in ordinary memory
	// when the system mlock limit is too low.
	insecureMemoryEnv = "SONAR_INSECURE_MEMORY"
)

var (
	mlockOnce    sync.Once
	mlockOK      bool
	mlockLimitKB int64
)

// Local is an in-process Oracle that holds its secret in mlocked memory.
//
// Description:
//
//	The secret lives in a memguard LockedBuffer so it cannot be swapped
//	to disk or recovered from a core dump. When the system mlock limit
//	is below minMlockKB the constructor fails unless
//	SONAR_INSECURE_MEMORY=true, in which case the secret is held in
//	ordinary memory and a warning is logged.
//
//	Every Evaluate call counts against Queries, including calls rejected
//	with a sentinel. Rotate swaps the secret atomically and resets the
//	counter, so a served oracle can change its secret between solve runs
//	without restarting.
//
// Thread Safety:
//
//	Safe for concurrent use. Evaluate takes a read lock; Rotate and
//	Close take the write lock.
type Local struct {
	mu       sync.RWMutex
	alphabet string
	buf      *memguard.LockedBuffer // nil in insecure mode and after Close
	plain    []byte                 // insecure fallback storage
	closed   bool
	queries  atomic.Uint64
}

// LocalOption configures a Local oracle.
type LocalOption func(*Local)

// WithAlphabet overrides DefaultAlphabet for secret and guess validation.
func WithAlphabet(alphabet string) LocalOption {
	return func(l *Local) {
		l.alphabet = alphabet
	}
}

// NewLocal creates a Local oracle serving the given secret.
//
// Inputs:
//
//	secret - The hidden string, 1 to MaxSecretLength letters from the
//	         oracle's alphabet.
//	opts - Optional configuration.
//
// Outputs:
//
//	*Local - Ready to evaluate guesses.
//	error - ErrInvalidAlphabet, ErrEmptySecret, ErrSecretTooLong,
//	        ErrInvalidSecret, or ErrSecureMemory.
func NewLocal(secret string, opts ...LocalOption) (*Local, error) {
	l := &Local{alphabet: DefaultAlphabet}
	for _, opt := range opts {
		opt(l)
	}

	if err := ValidateAlphabet(l.alphabet); err != nil {
		return nil, err
	}
	if err := ValidateSecret(secret, l.alphabet); err != nil {
		return nil, err
	}
	if err := l.store([]byte(secret)); err != nil {
		return nil, err
	}
	return l, nil
}

// Evaluate implements Oracle.
//
// Validation order matches the contract: alphabet first, then length.
func (l *Local) Evaluate(ctx context.Context, guess string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return 0, ErrOracleClosed
	}
	l.queries.Add(1)

	for i := 0; i < len(guess); i++ {
		if !l.inAlphabet(guess[i]) {
			recordEvaluation(ctx, outcomeInvalidAlphabet)
			return MatchInvalidAlphabet, nil
		}
	}

	secret := l.secretBytes()
	if len(guess) != len(secret) {
		recordEvaluation(ctx, outcomeWrongLength)
		return MatchWrongLength, nil
	}

	matched := 0
	for i := range secret {
		if guess[i] == secret[i] {
			matched++
		}
	}

	if matched == len(secret) {
		recordEvaluation(ctx, outcomeExactMatch)
		slog.Debug("oracle served exact match", "queries", l.queries.Load())
	} else {
		recordEvaluation(ctx, outcomeCounted)
	}
	return matched, nil
}

// Rotate replaces the secret and resets the query counter.
//
// The old secret is wiped before the new one is stored. In-flight
// evaluations complete against the old secret; later ones see the new.
func (l *Local) Rotate(secret string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrOracleClosed
	}
	if err := ValidateSecret(secret, l.alphabet); err != nil {
		return err
	}

	l.wipe()
	if err := l.store([]byte(secret)); err != nil {
		// No secret left to serve; refuse further use.
		l.closed = true
		return err
	}
	l.queries.Store(0)
	slog.Info("oracle secret rotated", "length", len(secret))
	return nil
}

// Length returns the current secret's length, or 0 after Close.
func (l *Local) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0
	}
	return len(l.secretBytes())
}

// Alphabet returns the alphabet this oracle validates against.
func (l *Local) Alphabet() string {
	return l.alphabet
}

// Queries returns the number of Evaluate calls since creation or the
// last Rotate.
func (l *Local) Queries() uint64 {
	return l.queries.Load()
}

// Close wipes the secret. All later calls fail with ErrOracleClosed.
// Safe to call more than once.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.wipe()
	l.closed = true
	return nil
}

// store places the secret bytes in locked memory, or in plain memory when
// the insecure override is set. b must not be reused by the caller.
func (l *Local) store(b []byte) error {
	initMlockCheck()

	if mlockOK {
		buf := memguard.NewBufferFromBytes(b)
		buf.Freeze()
		l.buf = buf
		return nil
	}

	if os.Getenv(insecureMemoryEnv) == "true" {
		slog.Warn("holding oracle secret in unlocked memory",
			"mlock_limit_kb", mlockLimitKB,
			"required_kb", minMlockKB,
		)
		l.plain = b
		return nil
	}

	return fmt.Errorf("%w: mlock limit %d KB, need %d KB; raise the limit or set %s=true",
		ErrSecureMemory, mlockLimitKB, minMlockKB, insecureMemoryEnv)
}

// secretBytes returns the live secret. Caller must hold l.mu.
func (l *Local) secretBytes() []byte {
	if l.buf != nil {
		return l.buf.Bytes()
	}
	return l.plain
}

// wipe destroys the current secret storage. Caller must hold l.mu.
func (l *Local) wipe() {
	if l.buf != nil {
		l.buf.Destroy()
		l.buf = nil
	}
	for i := range l.plain {
		l.plain[i] = 0
	}
	l.plain = nil
}

func (l *Local) inAlphabet(c byte) bool {
	for i := 0; i < len(l.alphabet); i++ {
		if l.alphabet[i] == c {
			return true
		}
	}
	return false
}

// initMlockCheck queries the RLIMIT_MEMLOCK ceiling once per process.
func initMlockCheck() {
	mlockOnce.Do(func() {
		var rlimit unix.Rlimit
		if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rlimit); err != nil {
			slog.Warn("could not determine mlock limit", "error", err)
			mlockOK, mlockLimitKB = true, -1
			return
		}
		if rlimit.Cur == unix.RLIM_INFINITY {
			mlockOK, mlockLimitKB = true, -1
			return
		}
		mlockLimitKB = int64(rlimit.Cur / 1024)
		mlockOK = mlockLimitKB >= minMlockKB
	})
}

// PurgeSecrets wipes all memguard-allocated memory. Intended for graceful
// shutdown paths after the serving oracle is no longer needed.
func PurgeSecrets() {
	memguard.Purge()
	slog.Info("purged oracle secret memory")
}
