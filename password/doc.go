// Package password implements the engine's password policy and one-way
// hashing. Strength validation is pure; hashing is bcrypt with a cost
// tuned for interactive sign-in latency.
package password
