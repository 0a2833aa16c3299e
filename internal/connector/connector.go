// Package connector bridges the in-process channel fabric to other
// runtime instances over an external pub/sub bus, the way the spec's
// cross-runtime links are realized: a ZenohSender publishes whatever an
// Output produces, a ZenohReceiver republishes whatever it hears onto a
// local Input, both keyed by a topic derived from the flow/instance/link
// identity so unrelated instances never cross streams.
package connector

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/zenohflow/runtime/common/logger"
	"github.com/zenohflow/runtime/internal/channel"
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/zferrors"
)

// Bus is the minimal pub/sub surface a connector needs; it is satisfied
// by the Redis-backed implementation in redis.go, and by a fake in
// tests, so connectors never depend on a concrete client type.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Subscription yields messages published to the topic it was created
// from until Close is called or ctx is cancelled.
type Subscription interface {
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}

// Topic derives the bus key a link's cross-runtime connector publishes
// and subscribes on: zflow/{flow}/{instance}/{link}, keeping distinct
// flows and distinct running instances of the same flow from ever
// colliding on the same bus.
func Topic(flow descriptor.FlowID, instance uuid.UUID, link descriptor.LinkID) string {
	return "zflow/" + string(flow) + "/" + instance.String() + "/" + string(link)
}

// wireMessage is the payload format exchanged over the bus: the
// producer's HLC timestamp plus an opaque, JSON-encoded data value. A
// real cross-language deployment would use a fixed binary encoding
// (spec §6 leaves the wire format to the transport); JSON is used here
// since every value flowing through this runtime's ports already has to
// be representable in configuration/descriptor JSON anyway.
type wireMessage struct {
	Timestamp uint64          `json:"timestamp"`
	JobID     string          `json:"job_id"`
	Data      json.RawMessage `json:"data"`
}

// ZenohSender publishes every item it receives from a local Output onto
// the bus topic for its link, tagging each message with a fresh job id.
// ZenohReceiver does not deduplicate on that id: it forwards every
// message it receives.
type ZenohSender struct {
	bus   Bus
	topic string
}

// NewZenohSender builds a sender for the given topic.
func NewZenohSender(bus Bus, topic string) *ZenohSender {
	return &ZenohSender{bus: bus, topic: topic}
}

// Send publishes item to the bus.
func (s *ZenohSender) Send(ctx context.Context, item channel.Item) error {
	data, err := json.Marshal(item.Data)
	if err != nil {
		return zferrors.Wrap(zferrors.SerializationError, err, "encoding connector payload")
	}
	msg := wireMessage{Timestamp: item.Timestamp, JobID: uuid.NewString(), Data: data}
	raw, err := json.Marshal(msg)
	if err != nil {
		return zferrors.Wrap(zferrors.SerializationError, err, "encoding connector message")
	}
	if err := s.bus.Publish(ctx, s.topic, raw); err != nil {
		return zferrors.Wrap(zferrors.SendError, err, "publishing to %q", s.topic)
	}
	return nil
}

// ZenohReceiver subscribes to a bus topic and forwards every message it
// receives onto a local Input-compatible sink, the way the teacher's
// cmd/fanout RedisSubscriber forwards Redis Pub/Sub messages into its
// Hub's broadcast channel for further local fan-out.
type ZenohReceiver struct {
	bus   Bus
	topic string
	log   *logger.Logger
}

// NewZenohReceiver builds a receiver for the given topic.
func NewZenohReceiver(bus Bus, topic string) *ZenohReceiver {
	return &ZenohReceiver{bus: bus, topic: topic}
}

// WithLogger attaches a logger so decode errors can be warned about
// instead of silently dropped. Optional: a receiver built without one
// just drops the malformed sample without logging.
func (r *ZenohReceiver) WithLogger(log *logger.Logger) *ZenohReceiver {
	r.log = log
	return r
}

// Run subscribes and forwards every decoded item to sink until ctx is
// cancelled.
func (r *ZenohReceiver) Run(ctx context.Context, sink func(channel.Item) error) error {
	sub, err := r.bus.Subscribe(ctx, r.topic)
	if err != nil {
		return zferrors.Wrap(zferrors.RecvError, err, "subscribing to %q", r.topic)
	}
	defer sub.Close()

	for {
		raw, err := sub.Recv(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return zferrors.Wrap(zferrors.RecvError, err, "receiving from %q", r.topic)
		}

		var msg wireMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			if r.log != nil {
				r.log.Warn("dropping malformed connector message", "topic", r.topic, "error", err)
			}
			continue
		}
		var data interface{}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			if r.log != nil {
				r.log.Warn("dropping connector message with malformed payload", "topic", r.topic, "error", err)
			}
			continue
		}

		if err := sink(channel.Item{Timestamp: msg.Timestamp, Data: data}); err != nil {
			return err
		}
	}
}
