package light

import "errors"

// Domain errors for the light package.
var (
	// ErrCommandTopicRequired is returned when a light has no command topic.
	ErrCommandTopicRequired = errors.New("light: command topic is required")

	// ErrInvalidQoS is returned when the configured QoS is not 0, 1, or 2.
	ErrInvalidQoS = errors.New("light: qos must be 0, 1, or 2")

	// ErrNilCodec is returned when a controller is built without a codec.
	ErrNilCodec = errors.New("light: codec is required")

	// ErrNilPublisher is returned when a controller is built without a publisher.
	ErrNilPublisher = errors.New("light: publisher is required")

	// ErrNilSubscriber is returned by Register when a state topic exists but
	// no subscriber was given.
	ErrNilSubscriber = errors.New("light: subscriber is required")

	// ErrMalformedPayload is returned by codecs when an inbound payload is
	// not a JSON object.
	ErrMalformedPayload = errors.New("light: malformed payload")

	// ErrUnknownCodec is returned by CodecByName for an unrecognised schema.
	ErrUnknownCodec = errors.New("light: unknown codec")
)
