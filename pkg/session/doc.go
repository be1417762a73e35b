// Package session turns credentials into an authenticated Instagram client.
//
// A Manager first tries the session file written by an earlier run and
// checks it with a timeline fetch. Any failure along that path, whether an
// unreadable file, a different account or a rejected probe, deletes the
// file and falls back to a password login. When the server asks for a
// second factor the Manager obtains a code from its CodeProvider and
// completes the login; a rejected code ends the attempt.
//
// After a fresh login the client settings are written back to the session
// file with owner-only permissions.
package session
