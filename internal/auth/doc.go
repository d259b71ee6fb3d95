// Package auth holds the stateless credential primitives: bcrypt password
// hashing and signed session tokens. Nothing here touches persistence.
package auth
