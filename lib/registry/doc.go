/*
Package registry implements the top tier of dTodo: the actor that maps keys to
worker handles, creates workers lazily and supervises them.

Every operation is a message to the registry's mailbox and is processed one at a
time, so "look up, and spawn if missing" is atomic: concurrent first-time Resolve
calls for the same key all receive the same handle and exactly one worker is
spawned.

Workers report their termination to the registry. A mapping is only removed if the
terminated worker is the incarnation currently mapped (compared by id), so a late
notification can never remove a newer worker. Failed workers are not restarted; the
next Resolve for the key spawns a fresh worker, which reloads the persisted list.
*/
package registry
