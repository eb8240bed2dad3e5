// Package state persists per-user conversation state between updates.
// Stores are generic over the state value so bots can keep their own session type.
package state
