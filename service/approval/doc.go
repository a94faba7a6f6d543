// Package approval implements the human-in-the-loop gate. A checkpoint
// registers a Request carrying the proposed output; the run stays parked
// until a Decision is recorded, the request is withdrawn or the waiter's
// context ends.
package approval
