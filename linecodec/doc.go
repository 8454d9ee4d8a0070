/*
Package linecodec reads and writes the plain-text container format
of a flat path -> content store.

The container is a sequence of lines:

	/notes/todo.txt
	buy milk
	call bob
	/empty

	/b
	hello

A line whose first byte is '/' is a path line and starts a new entry.
Every other line is a content line and is appended, newline included,
to the entry started by the most recent path line. Content lines that
appear before the first path line don't belong to any entry and are
dropped.

There is no escaping. A content line that starts with '/' is read back
as a path line, so content like that doesn't survive a round-trip.

When writing, a newline is added after the content if it is empty or
doesn't already end with one. That extra newline is not removed when
reading, so content without a trailing newline comes back with one.

Decode doesn't build entries itself. It calls Insert and then Update
on a Builder for every entry it reads, which means a path that shows up
twice is treated like a second Insert of an existing path: the Insert
error is ignored, the later content wins and the entry keeps the
position of the first occurrence.
*/
package linecodec
