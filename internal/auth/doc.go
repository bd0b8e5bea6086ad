// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

// Package auth provides registration and stateless token authentication for Noteful.
//
// # Domain Types
//
// A User is created from a Registration returned by ValidateRegistration and
// a digest produced by a PasswordHasher:
//   - ValidateRegistration - presence, type, trimming and length checks
//   - NewUser - assigns an ID and trims the full name
//
// Only PublicUser leaves the package in responses and tokens.
//
// # Tokens
//
// TokenIssuer signs HS256 tokens from an immutable TokenConfig. Tokens expire
// after the configured lifetime; there is no revocation.
//
// # Strategies
//
// Two Strategy implementations resolve credentials to a PublicUser:
//   - LoginStrategy - username and password checked against the UserRepository
//   - RefreshStrategy - a previously issued, unexpired token
//
// Service wires both to the TokenIssuer and is created with NewService.
package auth
