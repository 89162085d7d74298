// Package command defines the command envelope the engine hands to the
// marketplace decider, and the decision the decider returns.
//
// A command is pure intent: it carries the caller principal, the operation
// type, and a JSON payload. Deciders never mutate state; they return either
// events to append or rejections explaining why the command was declined.
package command
