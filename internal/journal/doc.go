// Package journal records sticker job history in SQLite.
//
// The journal is an audit trail, not a work queue: nothing is replayed from
// it. Rows a previous process left queued or running are marked abandoned
// when the daemon starts. Schema changes bump schemaVersion in schema.go;
// users delete the database to adopt the new schema.
package journal
