package approval

import (
	"context"

	"github.com/viant/crewflow/service/messaging"
)

// Service defines the approval service interface.
type Service interface {
	// RequestApproval registers a pending request.
	RequestApproval(ctx context.Context, r *Request) error
	// ListPending returns undecided requests in creation order.
	ListPending(ctx context.Context) ([]*Request, error)
	// Decide records a verdict; repeating the same verdict returns the recorded decision.
	Decide(ctx context.Context, id string, approved bool, reason string) (*Decision, error)
	// Decision returns the recorded decision, or nil when still pending.
	Decision(ctx context.Context, id string) (*Decision, error)
	// Wait blocks until the request is decided, withdrawn or ctx is done.
	Wait(ctx context.Context, id string) (*Decision, error)
	// Withdraw releases a pending request without a decision.
	Withdraw(ctx context.Context, id string) error
	// Forget drops the request, its decision and any waiter state. A
	// still pending request is released as withdrawn.
	Forget(ctx context.Context, id string) error
	// Queue exposes request and decision events.
	Queue() messaging.Queue[Event]
}
