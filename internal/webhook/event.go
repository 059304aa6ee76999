package webhook

const (
	EventCheckoutSessionCompleted    = "checkout.session.completed"
	EventCustomerSubscriptionDeleted = "customer.subscription.deleted"
)

// Kind is the closed set of outcomes a verified event is classified into.
type Kind int

const (
	KindUnknown Kind = iota
	KindCheckoutCompleted
	KindSubscriptionDeleted
)

func (k Kind) String() string {
	switch k {
	case KindCheckoutCompleted:
		return "checkout_completed"
	case KindSubscriptionDeleted:
		return "subscription_deleted"
	default:
		return "unknown"
	}
}

// Event is a verified and classified Stripe event.
//
// Object holds data.object as a generic JSON document: nil, bool,
// json.Number, string, []any or map[string]any.
type Event struct {
	ID     string
	Type   string
	Kind   Kind
	Object any
}

func classify(eventType string) Kind {
	switch eventType {
	case EventCheckoutSessionCompleted:
		return KindCheckoutCompleted
	case EventCustomerSubscriptionDeleted:
		return KindSubscriptionDeleted
	default:
		return KindUnknown
	}
}
