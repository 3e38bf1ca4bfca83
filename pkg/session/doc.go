// Package session binds client connections to workflow runs. A Session owns
// at most one active run and a single ordered outbound event queue; the
// Manager serializes snapshot access per session, optionally across processes
// through a distributed locker.
package session
