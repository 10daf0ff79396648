/*
Package list contains the data model owned by a single worker: a todo List made of
dated Entries that are addressed by a monotonically increasing id.

A List is a plain value without any synchronization. It is only ever mutated by the
worker goroutine that owns it; whenever a List leaves that goroutine (a snapshot sent
to the store, an answer to a Get) it is copied first, see List.Clone.

Snapshot Format:

The persisted representation of a List is a JSON document:

	{
	  "auto_id": 2,
	  "entries": {
	    "0": {"date": "2024-03-01", "title": "buy milk"},
	    "1": {"date": "2024-03-02", "title": "call bob"}
	  }
	}

"auto_id" is the id the next added entry will receive. Dates are ISO-8601 calendar
dates without a time zone.
*/
package list
