// Package light models a remote light fixture as a local stateful object
// kept in sync over MQTT.
//
// A Controller owns the state of one light (on/off, brightness, colour) and
// translates host commands into outbound messages on the command topic. Inbound
// messages on the state topic are decoded and merged into that state.
//
// # Consistency Modes
//
// Confirmed mode: commands only publish intent. Local state changes when the
// device reports back on its state topic.
//
// Optimistic mode: local state is updated as soon as a command is published.
// A light without a state topic is always optimistic, since nothing would
// ever confirm a change.
//
// # Wire Formats
//
// Two codecs share the same state payload:
//
//	{"state": "ON"|"OFF", "color": {"r": 0, "g": 0, "b": 0}, "brightness": 0}
//
// Commands carry the same fields plus "transition". The json codec also
// carries "flash" ("short" or "long"); the plain codec never emits it.
//
// # Capabilities
//
// Brightness and colour are modelled only when enabled at construction.
// Accessors for a disabled capability report ok == false, and inbound values
// for it are ignored by both codecs.
//
// # Usage
//
//	ctrl, err := light.New(light.Config{
//	    Name:         "kitchen",
//	    StateTopic:   "home/kitchen",
//	    CommandTopic: "home/kitchen/set",
//	    Brightness:   true,
//	    RGB:          true,
//	}, light.JSONCodec{}, publisher, light.Options{OnChange: onChange})
//	if err != nil {
//	    return err
//	}
//	if err := ctrl.Register(subscriber); err != nil {
//	    return err
//	}
//
//	level := 128
//	ctrl.TurnOn(light.TurnOnOptions{Brightness: &level})
//
// # Thread Safety
//
// Controller methods are safe for concurrent use. The change notification is
// invoked after the internal lock is released, with a snapshot of the state.
package light
