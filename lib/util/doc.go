/*
Package util provides small concurrency and statistics building blocks shared by the
actors in lib/: the unbounded lock-free queue that backs every mailbox and the size
histogram the store uses to describe its snapshots.
*/
package util
