package event

// Subscription identifies one handler registration on the bus. It is
// returned by Subscribe and accepted by Unsubscribe.
type Subscription interface {
	// Kind is the event kind this subscription listens to.
	Kind() string
	// Name uniquely identifies the subscription on its bus. Auto-assigned
	// unless WithName was used.
	Name() string
	// Owner groups subscriptions for bulk removal, e.g. by owning service.
	Owner() string
}

// SubscribeConfig holds per-subscription settings collected from options.
type SubscribeConfig struct {
	Name   string
	Owner  string
	Filter Filter
}

// SubscribeOption customizes a single subscription.
type SubscribeOption func(*SubscribeConfig)

// WithName assigns an explicit subscription name. Names must be unique per
// bus; Subscribe fails on duplicates.
func WithName(name string) SubscribeOption {
	return func(c *SubscribeConfig) { c.Name = name }
}

// WithOwner tags the subscription so UnsubscribeOwner can drop all of a
// service's subscriptions at once.
func WithOwner(owner string) SubscribeOption {
	return func(c *SubscribeConfig) { c.Owner = owner }
}

// WithFilter delivers only events the filter accepts.
func WithFilter(f Filter) SubscribeOption {
	return func(c *SubscribeConfig) { c.Filter = f }
}
