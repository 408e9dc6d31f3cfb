package events

import "context"

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

// Consume subscribes to topic and calls fn for every payload until ctx is
// done or the subscription channel closes. fn runs on a single goroutine.
func Consume(ctx context.Context, sub Subscriber, topic string, fn func(data []byte)) error {
	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return err
	}
	return drain(ctx, ch, cancel, fn)
}

// Start is Consume on a new goroutine. The subscription is registered before
// Start returns; the channel receives Consume's result once it stops.
func Start(ctx context.Context, sub Subscriber, topic string, fn func(data []byte)) (<-chan error, error) {
	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() { done <- drain(ctx, ch, cancel, fn) }()
	return done, nil
}

func drain(ctx context.Context, ch <-chan []byte, cancel func(), fn func(data []byte)) error {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			fn(data)
		}
	}
}
