// Package sony implements the bridge for Sony networked audio devices
// (AV receivers and soundbars) that expose the JSON-RPC control API on
// port 10000.
//
// # Architecture
//
//	┌─────────────────┐          ┌─────────────────┐   HTTP JSON-RPC
//	│   Gray Logic    │   MQTT   │   Sony Bridge   │◄────────────────► Device
//	│   API / MCP     │◄────────►│   (this pkg)    │   /sony/<service>
//	└─────────────────┘          └─────────────────┘
//
// Each configured device is a Device: an RPC Client, a CapabilityCache of
// the device's sound settings, speaker settings and zones, the discovered
// input sources, and a Dispatcher that turns command strings into RPC
// calls. The set of commands a device accepts is compiled from its current
// capabilities by CompileNamespace.
//
// # Commands
//
// Fixed commands (POWER_ON, VOLUME_UP, MUTE_TOGGLE, ...) are always present.
// Capability-derived families follow the device:
//
//   - SOUND_FIELD_<VALUE> and SOUND_<TARGET>_<VALUE> from sound settings
//   - SPEAKER_<NAME>_UP/DOWN from numeric speaker levels
//   - ZONE<n>_VOLUME_UP/DOWN, ZONE<n>_MUTE_TOGGLE, ZONE<n>_ACTIVATE/DEACTIVATE
//   - SYSTEM_DIMMER_<V> and SYSTEM_HDMI_OUTPUT_<A|B|AB|OFF>
//   - INPUT_<TOKEN> from discovered sources
//   - REFRESH_SETTINGS
//
// Every capability-derived command is checked against the cached snapshot
// before any call reaches the device.
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
// Capability refreshes for one device are serialized; snapshots are
// immutable and swapped atomically.
package sony
