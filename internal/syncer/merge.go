// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package syncer

import (
	"dario.cat/mergo"

	"github.com/okunev/passvault/models"
)

// mergeRemoteWins overlays the remote record onto the local one field by
// field. Empty remote fields keep their local values, so a remote that
// never learned a field cannot blank it out. Device-local fields are
// restored afterwards: folders, tags, and package names live on this device
// only, and quarantine state describes the local ciphertext, not the
// remote's.
func mergeRemoteWins(local models.EncryptedRecord, remote models.RemoteRecord) (models.EncryptedRecord, error) {
	merged := local
	if err := mergo.Merge(&merged, remote.Record, mergo.WithOverride); err != nil {
		return models.EncryptedRecord{}, err
	}

	merged.FolderID = local.FolderID
	merged.Tags = local.Tags
	merged.PackageNames = local.PackageNames

	// Quarantine describes the local ciphertext. A remote win that delivers
	// fresh ciphertext replaces those bytes, so the flag clears; otherwise
	// it sticks.
	merged.Quarantined = local.Quarantined
	if len(remote.Record.Password) > 0 {
		merged.Quarantined = false
	}

	merged.CreatedAt = local.CreatedAt
	merged.Revision = remote.Revision
	edited := remote.EditedAt
	merged.RemoteModifiedAt = &edited
	merged.UpdatedAt = remote.EditedAt
	return merged, nil
}
