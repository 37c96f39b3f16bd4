// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package store

import sq "github.com/Masterminds/squirrel"

// qb is the squirrel builder used for the dynamic queries; SQLite takes the
// default ? placeholders.
var qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

const (
	upsertRecord = `
		INSERT INTO passwords (
			id,
			title,
			username,
			password,
			url,
			notes,
			folder_id,
			tags,
			package_names,
			favorite,
			created_at,
			updated_at,
			remote_modified_at,
			quarantined,
			revision
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			username = excluded.username,
			password = excluded.password,
			url = excluded.url,
			notes = excluded.notes,
			folder_id = excluded.folder_id,
			tags = excluded.tags,
			package_names = excluded.package_names,
			favorite = excluded.favorite,
			updated_at = excluded.updated_at,
			remote_modified_at = excluded.remote_modified_at,
			quarantined = excluded.quarantined,
			revision = excluded.revision;`

	recordColumns = `
			id,
			title,
			username,
			password,
			url,
			notes,
			folder_id,
			tags,
			package_names,
			favorite,
			created_at,
			updated_at,
			remote_modified_at,
			quarantined,
			revision`

	getRecord = `
		SELECT` + recordColumns + `
		FROM passwords
		WHERE id = ?;`

	getAllRecords = `
		SELECT` + recordColumns + `
		FROM passwords
		ORDER BY title, id;`

	appendOperation = `
		INSERT INTO sync_queue (
			id,
			op_type,
			entity_id,
			entity_type,
			payload,
			queued_at,
			retry_count,
			max_retries,
			status,
			error_message,
			last_attempt_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	operationColumns = `
			id,
			op_type,
			entity_id,
			entity_type,
			payload,
			queued_at,
			retry_count,
			max_retries,
			status,
			error_message,
			last_attempt_at`

	upsertFolder = `
		INSERT INTO folders (id, name, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			parent_id = excluded.parent_id,
			updated_at = excluded.updated_at;`

	upsertTag = `
		INSERT INTO tags (id, name)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name;`

	upsertMeta = `
		INSERT INTO sync_meta (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value;`
)
