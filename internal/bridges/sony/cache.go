package sony

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Targets with dedicated command families.
const (
	TargetSoundField = "soundField"
	TargetDimmer     = "dimmer"
	TargetHDMIOutput = "hdmiOutput"
)

// DefaultProbeZones are the zones probed besides the main zone. The protocol
// defines no way to enumerate zones, so a device with a fourth zone stays
// invisible.
var DefaultProbeZones = []int{2, 3}

// CapabilitySource is the subset of Client the cache reads from.
type CapabilitySource interface {
	SoundSettings(ctx context.Context, target string) ([]Setting, error)
	SpeakerSettings(ctx context.Context, target string) ([]Setting, error)
	VolumeInfo(ctx context.Context, output string, opts ...CallOption) ([]VolumeInfo, error)
}

// Snapshot is one immutable capture of the device's capabilities.
// Accessors return copies.
type Snapshot struct {
	sound       []Setting
	speaker     []Setting
	zones       []int
	refreshedAt time.Time
}

// NewSnapshot builds a snapshot from already-normalized settings. Zone 1 is
// always included; zones are sorted and deduplicated.
func NewSnapshot(sound, speaker []Setting, zones []int, refreshedAt time.Time) *Snapshot {
	zs := []int{MainZone}
	for _, z := range zones {
		if z > MainZone && !slices.Contains(zs, z) {
			zs = append(zs, z)
		}
	}
	slices.Sort(zs)
	return &Snapshot{
		sound:       cloneSettings(sound),
		speaker:     cloneSettings(speaker),
		zones:       zs,
		refreshedAt: refreshedAt,
	}
}

// SoundSettings returns the sound-domain settings in device order.
func (s *Snapshot) SoundSettings() []Setting { return cloneSettings(s.sound) }

// SpeakerSettings returns the speaker-domain settings in device order.
func (s *Snapshot) SpeakerSettings() []Setting { return cloneSettings(s.speaker) }

// Zones returns the known zone numbers in ascending order.
func (s *Snapshot) Zones() []int { return slices.Clone(s.zones) }

// HasZone reports whether zone is in the zone set.
func (s *Snapshot) HasZone(zone int) bool { return slices.Contains(s.zones, zone) }

// RefreshedAt returns when the snapshot was taken.
func (s *Snapshot) RefreshedAt() time.Time { return s.refreshedAt }

// FindSetting looks up target in the sound domain, then the speaker domain.
func (s *Snapshot) FindSetting(target string) (Setting, bool) {
	for _, set := range s.sound {
		if set.Target == target {
			return cloneSettings([]Setting{set})[0], true
		}
	}
	for _, set := range s.speaker {
		if set.Target == target {
			return cloneSettings([]Setting{set})[0], true
		}
	}
	return Setting{}, false
}

// SoundFieldOption is one selectable sound field.
type SoundFieldOption struct {
	Value string `json:"value"`
	Title string `json:"title"`
}

// AvailableSoundFieldOptions lists the available candidates of soundField.
func (s *Snapshot) AvailableSoundFieldOptions() []SoundFieldOption {
	field, ok := s.FindSetting(TargetSoundField)
	if !ok {
		return nil
	}
	var out []SoundFieldOption
	for _, c := range field.Candidates {
		if c.IsAvailable {
			out = append(out, SoundFieldOption{Value: c.Value, Title: c.Title})
		}
	}
	return out
}

// ToggleSetting is a boolean or enumerated sound setting.
type ToggleSetting struct {
	Target string   `json:"target"`
	Title  string   `json:"title"`
	Values []string `json:"values"`
}

// AvailableToggleSettings lists available boolean/enum sound settings.
// Candidate values are not filtered individually.
func (s *Snapshot) AvailableToggleSettings() []ToggleSetting {
	var out []ToggleSetting
	for _, set := range s.sound {
		if set.Kind != KindBoolean && set.Kind != KindEnum {
			continue
		}
		if !set.IsAvailable {
			continue
		}
		values := make([]string, 0, len(set.Candidates))
		for _, c := range set.Candidates {
			values = append(values, c.Value)
		}
		out = append(out, ToggleSetting{Target: set.Target, Title: set.Title, Values: values})
	}
	return out
}

// SpeakerControl is an adjustable numeric speaker setting.
type SpeakerControl struct {
	Target string  `json:"target"`
	Title  string  `json:"title"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Step   float64 `json:"step"`
}

// AvailableSpeakerControls lists available numeric speaker settings.
func (s *Snapshot) AvailableSpeakerControls() []SpeakerControl {
	var out []SpeakerControl
	for _, set := range s.speaker {
		if set.Kind != KindNumeric || !set.IsAvailable {
			continue
		}
		out = append(out, SpeakerControl{
			Target: set.Target,
			Title:  set.Title,
			Min:    set.Min,
			Max:    set.Max,
			Step:   set.Step,
		})
	}
	return out
}

// Validate reports whether target exists and value is one of its candidates.
func (s *Snapshot) Validate(target, value string) bool {
	set, ok := s.FindSetting(target)
	if !ok {
		return false
	}
	return set.HasCandidate(value)
}

// MarshalJSON renders the snapshot for API consumers.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SoundSettings   []Setting `json:"sound_settings"`
		SpeakerSettings []Setting `json:"speaker_settings"`
		Zones           []int     `json:"zones"`
		RefreshedAt     time.Time `json:"refreshed_at"`
	}{
		SoundSettings:   nonNilSettings(s.sound),
		SpeakerSettings: nonNilSettings(s.speaker),
		Zones:           s.zones,
		RefreshedAt:     s.refreshedAt,
	})
}

func nonNilSettings(in []Setting) []Setting {
	if in == nil {
		return []Setting{}
	}
	return in
}

// ZoneProbeResult is the outcome of probing one zone.
type ZoneProbeResult int

// Zone probe outcomes. The protocol cannot tell an absent zone from a failed
// probe, so ZoneProbeFailed is treated as absent.
const (
	ZoneAbsent ZoneProbeResult = iota
	ZonePresent
	ZoneProbeFailed
)

func (r ZoneProbeResult) String() string {
	switch r {
	case ZonePresent:
		return "present"
	case ZoneProbeFailed:
		return "probe_failed"
	default:
		return "absent"
	}
}

// ZoneProbe records one probe.
type ZoneProbe struct {
	Zone   int
	Result ZoneProbeResult
	Err    error
}

// ProbeZone asks for the volume information of one zone output. A non-empty
// answer means the zone exists.
func ProbeZone(ctx context.Context, src CapabilitySource, zone int) ZoneProbe {
	info, err := src.VolumeInfo(ctx, ZoneURI(zone))
	switch {
	case err != nil:
		return ZoneProbe{Zone: zone, Result: ZoneProbeFailed, Err: err}
	case len(info) == 0:
		return ZoneProbe{Zone: zone, Result: ZoneAbsent}
	default:
		return ZoneProbe{Zone: zone, Result: ZonePresent}
	}
}

// CacheOptions configures a CapabilityCache.
type CacheOptions struct {
	// ProbeZones lists zones to probe besides zone 1. Default: 2 and 3.
	ProbeZones []int

	// Logger is optional.
	Logger Logger

	// Clock overrides time.Now (tests).
	Clock func() time.Time
}

// CapabilityCache holds the current Snapshot of one device.
//
// Only Refresh writes. Readers load the snapshot pointer and never see a
// partially built snapshot. Refresh must not run concurrently with itself on
// the same cache; Device serializes refreshes.
type CapabilityCache struct {
	source     CapabilitySource
	probeZones []int
	logger     Logger
	now        func() time.Time

	current atomic.Pointer[Snapshot]
}

// NewCapabilityCache creates an empty cache reading from src.
func NewCapabilityCache(src CapabilitySource, opts CacheOptions) *CapabilityCache {
	zones := opts.ProbeZones
	if zones == nil {
		zones = DefaultProbeZones
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &CapabilityCache{
		source:     src,
		probeZones: slices.Clone(zones),
		logger:     loggerOrNoop(opts.Logger),
		now:        now,
	}
}

// Refresh fetches sound settings, speaker settings and the zone set, and
// replaces the snapshot only if the settings calls both succeed. On error
// the previous snapshot stays in place.
func (c *CapabilityCache) Refresh(ctx context.Context) error {
	var sound, speaker []Setting
	probes := make([]ZoneProbe, len(c.probeZones))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sound, err = c.source.SoundSettings(gctx, "")
		if err != nil {
			return fmt.Errorf("fetching sound settings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		speaker, err = c.source.SpeakerSettings(gctx, "")
		if err != nil {
			return fmt.Errorf("fetching speaker settings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		for i, zone := range c.probeZones {
			probes[i] = ProbeZone(gctx, c.source, zone)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		c.logger.Error("capability refresh failed, keeping previous snapshot", "error", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	zones := []int{MainZone}
	for _, p := range probes {
		switch p.Result {
		case ZonePresent:
			zones = append(zones, p.Zone)
		case ZoneProbeFailed:
			c.logger.Debug("zone probe failed, treating as absent", "zone", p.Zone, "error", p.Err)
		}
	}

	snap := NewSnapshot(sound, speaker, zones, c.now())
	c.current.Store(snap)
	c.logger.Info("capability cache refreshed",
		"sound_settings", len(sound),
		"speaker_settings", len(speaker),
		"zones", snap.zones,
	)
	return nil
}

// Snapshot returns the current snapshot, or nil before the first refresh.
func (c *CapabilityCache) Snapshot() *Snapshot {
	return c.current.Load()
}

// Ready reports whether at least one refresh has succeeded.
func (c *CapabilityCache) Ready() bool {
	return c.current.Load() != nil
}

// RefreshedAt returns the time of the last successful refresh.
func (c *CapabilityCache) RefreshedAt() time.Time {
	if s := c.current.Load(); s != nil {
		return s.refreshedAt
	}
	return time.Time{}
}

// FindSetting looks up target in the current snapshot.
func (c *CapabilityCache) FindSetting(target string) (Setting, bool) {
	s := c.current.Load()
	if s == nil {
		return Setting{}, false
	}
	return s.FindSetting(target)
}

// AvailableSoundFieldOptions queries the current snapshot.
func (c *CapabilityCache) AvailableSoundFieldOptions() []SoundFieldOption {
	if s := c.current.Load(); s != nil {
		return s.AvailableSoundFieldOptions()
	}
	return nil
}

// AvailableToggleSettings queries the current snapshot.
func (c *CapabilityCache) AvailableToggleSettings() []ToggleSetting {
	if s := c.current.Load(); s != nil {
		return s.AvailableToggleSettings()
	}
	return nil
}

// AvailableSpeakerControls queries the current snapshot.
func (c *CapabilityCache) AvailableSpeakerControls() []SpeakerControl {
	if s := c.current.Load(); s != nil {
		return s.AvailableSpeakerControls()
	}
	return nil
}

// Validate checks target/value against the current snapshot. It is false
// before the first refresh.
func (c *CapabilityCache) Validate(target, value string) bool {
	s := c.current.Load()
	if s == nil {
		return false
	}
	return s.Validate(target, value)
}

// Zones returns the current zone set; zone 1 only before the first refresh.
func (c *CapabilityCache) Zones() []int {
	if s := c.current.Load(); s != nil {
		return s.Zones()
	}
	return []int{MainZone}
}
