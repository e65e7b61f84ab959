// Package auth implements identity for NovelShelf: registration and
// login backed by bcrypt password hashes, cookie sessions persisted in
// SQLite, CSRF protection for form posts, and per-IP+email rate
// limiting of failed logins.
//
// The identity of the caller is always an explicit value resolved by
// the middleware into the request context; no handler reads ambient
// global state.
package auth
