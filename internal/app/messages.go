// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

// Package app assembles the passvault components into a runnable
// application and exposes the command-line verbs.
//
// All Msg* constants are human-readable message strings written to the
// terminal or log entries to describe the outcome of an operation. Keeping
// them in one place ensures consistent wording.
package app

const (
	// MsgVaultNotProvisioned is shown when a command needs an existing
	// vault but no credentials file is present.
	MsgVaultNotProvisioned = "vault is not provisioned, run `passvault init` first"

	// MsgVaultAlreadyProvisioned is shown when init finds an existing
	// credentials file.
	MsgVaultAlreadyProvisioned = "vault is already provisioned"

	// MsgWrongPassphrase is shown when the entered passphrase fails
	// validation against the stored canary.
	MsgWrongPassphrase = "wrong passphrase"

	// MsgNoMatches is shown when copy finds no record for the query.
	MsgNoMatches = "no matching records"

	// MsgRecordQuarantined is shown when the best match cannot be used
	// because its ciphertext failed authentication.
	MsgRecordQuarantined = "record is quarantined, its secret cannot be copied"

	// MsgSyncNotConfigured is shown when sync is requested without a
	// remote base URL configured.
	MsgSyncNotConfigured = "no remote configured, set REMOTE_BASE_URL or -remote-url"

	// MsgCopied is shown after a secret lands on the clipboard.
	MsgCopied = "password copied to clipboard"
)
