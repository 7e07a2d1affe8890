// Package syncer reconciles the local history store with a remote,
// timestamp-ordered collection. One call to Synchronizer.Sync runs a full
// pass: gate check, incremental fetch from the cursor, sequential apply of
// incoming records (tombstone wins, visits merge as a set union), batched
// upload of local deletions then modifications with timestamp chaining, and
// cursor update.
//
// A pass is strictly sequential. There is no rollback across records and no
// retry inside the engine; a failed pass is reported as a failure and the
// caller re-invokes the whole pass, which is safe because applying is
// idempotent and dirty sets are recomputed each time.
package syncer
