package sony

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Outcome is the result class of one dispatch.
type Outcome string

// Dispatch outcomes.
const (
	OutcomeOK             Outcome = "ok"
	OutcomeBadRequest     Outcome = "bad_request"
	OutcomeNotImplemented Outcome = "not_implemented"
	OutcomeDeviceError    Outcome = "device_error"
)

// Entity-level commands accepted by HandleEntityCommand.
const (
	EntityCommandOn      = "on"
	EntityCommandOff     = "off"
	EntityCommandToggle  = "toggle"
	EntityCommandSendCmd = "send_cmd"
)

// Parameter keys.
const (
	ParamCommand = "command"
	ParamRepeat  = "repeat"
)

// maxRepeat bounds the repeat parameter of volume commands.
const maxRepeat = 50

// Result describes one dispatch.
type Result struct {
	Command string  `json:"command"`
	Outcome Outcome `json:"outcome"`
	Err     error   `json:"-"`
}

// Error returns the error message, or "" for successful dispatches.
func (r Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// PowerState is the entity's on/off attribute.
type PowerState string

// Entity power states.
const (
	PowerOn      PowerState = "on"
	PowerOff     PowerState = "off"
	PowerUnknown PowerState = "unknown"
)

// PowerStateFor maps a device power status to the entity state.
func PowerStateFor(status PowerStatus) PowerState {
	switch status {
	case PowerActive:
		return PowerOn
	case PowerStandby:
		return PowerOff
	default:
		return PowerUnknown
	}
}

// DeviceControl is the subset of Client the dispatcher issues calls on.
type DeviceControl interface {
	SetPowerStatus(ctx context.Context, status PowerStatus) error
	VolumeInfo(ctx context.Context, output string, opts ...CallOption) ([]VolumeInfo, error)
	SetVolume(ctx context.Context, output, volume string) error
	SetMute(ctx context.Context, output string, mute bool) error
	SetSoundSetting(ctx context.Context, target, value string) error
	SetSpeakerSetting(ctx context.Context, target, value string) error
	SetPlayContent(ctx context.Context, output, uri string) error
	SetActiveTerminal(ctx context.Context, uri string, active bool) error
}

// PowerTracker holds the entity power attribute read by POWER_TOGGLE.
type PowerTracker interface {
	PowerState() PowerState
	SetPowerState(state PowerState)
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// Control issues device calls. Required.
	Control DeviceControl

	// Cache provides capability data. Required.
	Cache *CapabilityCache

	// Refresh reloads capability data after a speaker change. Defaults to
	// Cache.Refresh; Device supplies its serialized cache refresh.
	Refresh func(ctx context.Context) error

	// Reload runs REFRESH_SETTINGS. Defaults to Refresh; Device supplies a
	// refresh that also rediscovers sources.
	Reload func(ctx context.Context) error

	// Sources returns the currently known sources for INPUT_ decoding.
	Sources func() []Source

	// Power tracks the entity power state. Required.
	Power PowerTracker

	// Logger is optional.
	Logger Logger
}

// Dispatcher resolves commands into device calls. It holds no state of its
// own; each Dispatch runs start to finish on the caller's goroutine.
type Dispatcher struct {
	control DeviceControl
	cache   *CapabilityCache
	refresh func(ctx context.Context) error
	reload  func(ctx context.Context) error
	sources func() []Source
	power   PowerTracker
	logger  Logger
}

// NewDispatcher validates opts and returns a Dispatcher.
func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Control == nil {
		return nil, errors.New("sony: dispatcher requires a device control")
	}
	if opts.Cache == nil {
		return nil, errors.New("sony: dispatcher requires a capability cache")
	}
	if opts.Power == nil {
		return nil, errors.New("sony: dispatcher requires a power tracker")
	}
	d := &Dispatcher{
		control: opts.Control,
		cache:   opts.Cache,
		refresh: opts.Refresh,
		reload:  opts.Reload,
		sources: opts.Sources,
		power:   opts.Power,
		logger:  loggerOrNoop(opts.Logger),
	}
	if d.refresh == nil {
		d.refresh = opts.Cache.Refresh
	}
	if d.reload == nil {
		d.reload = d.refresh
	}
	if d.sources == nil {
		d.sources = func() []Source { return nil }
	}
	return d, nil
}

// HandleEntityCommand handles the entity-level commands: on, off, toggle and
// send_cmd (which carries a command string in params). Anything else is
// not implemented here.
func (d *Dispatcher) HandleEntityCommand(ctx context.Context, cmdID string, params map[string]any) Result {
	switch cmdID {
	case EntityCommandOn:
		return d.Dispatch(ctx, CommandPowerOn, nil)
	case EntityCommandOff:
		return d.Dispatch(ctx, CommandPowerOff, nil)
	case EntityCommandToggle:
		return d.Dispatch(ctx, CommandPowerToggle, nil)
	case EntityCommandSendCmd:
		cmd, _ := params[ParamCommand].(string) //nolint:errcheck // Non-string handled as empty below
		if cmd == "" {
			return Result{Command: cmdID, Outcome: OutcomeBadRequest, Err: newValidationError("parameter", ParamCommand, "required")}
		}
		return d.Dispatch(ctx, cmd, params)
	default:
		d.logger.Warn("unsupported entity command", "command", cmdID)
		return Result{Command: cmdID, Outcome: OutcomeNotImplemented, Err: fmt.Errorf("sony: entity command %q not implemented", cmdID)}
	}
}

// Dispatch parses raw and executes it.
//
// Parameters:
//   - ctx: Bounds every device call of this command
//   - raw: Command string, case-insensitive
//   - params: Optional flat parameters; "repeat" replays VOLUME_UP/DOWN
//
// Returns:
//   - Result: Outcome plus the underlying error for logging
func (d *Dispatcher) Dispatch(ctx context.Context, raw string, params map[string]any) Result {
	cmd := ParseCommand(raw)
	err := d.execute(ctx, cmd, params)
	res := Result{Command: cmd.Name(), Outcome: classify(err), Err: err}

	switch res.Outcome {
	case OutcomeOK:
		d.logger.Debug("command dispatched", "command", res.Command)
	case OutcomeBadRequest:
		d.logger.Warn("command rejected", "command", res.Command, "error", err)
	default:
		d.logDeviceError(res.Command, err)
	}
	return res
}

func (d *Dispatcher) logDeviceError(command string, err error) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		d.logger.Error("device error", "command", command, "method", pe.Method, "code", pe.Code, "message", pe.Message)
		return
	}
	d.logger.Error("device error", "command", command, "error", err)
}

// classify maps an execution error to an outcome. Local validation and
// missing capability data are bad requests; everything else came from the
// device.
func classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var ve *ValidationError
	if errors.As(err, &ve) || errors.Is(err, ErrStaleCache) {
		return OutcomeBadRequest
	}
	return OutcomeDeviceError
}

func (d *Dispatcher) execute(ctx context.Context, cmd Command, params map[string]any) error {
	switch c := cmd.(type) {
	case PowerCommand:
		return d.setPower(ctx, c)
	case VolumeCommand:
		return d.volume(ctx, c, params)
	case MuteCommand:
		return d.mute(ctx, "", c.Action)
	case SoundSettingCommand:
		return d.soundSetting(ctx, c)
	case SpeakerLevelCommand:
		return d.speakerLevel(ctx, c)
	case ZoneCommand:
		return d.zone(ctx, c)
	case SystemCommand:
		return d.system(ctx, c)
	case InputCommand:
		return d.input(ctx, c)
	case RefreshCommand:
		return d.reload(ctx)
	case UnknownCommand:
		return newValidationError("command", c.Raw, c.Reason)
	default:
		return newValidationError("command", cmd.Name(), "unsupported command type")
	}
}

func (d *Dispatcher) setPower(ctx context.Context, c PowerCommand) error {
	on := c.Action == ActionOn
	if c.Action == ActionToggle {
		on = d.power.PowerState() == PowerOff
	}
	status, state := PowerStandby, PowerOff
	if on {
		status, state = PowerActive, PowerOn
	}
	if err := d.control.SetPowerStatus(ctx, status); err != nil {
		return err
	}
	d.power.SetPowerState(state)
	return nil
}

func (d *Dispatcher) volume(ctx context.Context, c VolumeCommand, params map[string]any) error {
	repeat, err := repeatParam(params)
	if err != nil {
		return err
	}
	step := VolumeStepUp
	if c.Direction == Down {
		step = VolumeStepDown
	}
	for range repeat {
		if err := d.control.SetVolume(ctx, "", step); err != nil {
			return err
		}
	}
	return nil
}

// repeatParam reads the repeat parameter; JSON numbers, ints and numeric
// strings are accepted.
func repeatParam(params map[string]any) (int, error) {
	v, ok := params[ParamRepeat]
	if !ok || v == nil {
		return 1, nil
	}
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case float64:
		if x != math.Trunc(x) {
			return 0, newValidationError("parameter", ParamRepeat, "must be an integer")
		}
		n = int(x)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, newValidationError("parameter", ParamRepeat, "must be an integer")
		}
		n = parsed
	default:
		return 0, newValidationError("parameter", ParamRepeat, "must be an integer")
	}
	if n < 1 || n > maxRepeat {
		return 0, newValidationError("parameter", ParamRepeat, fmt.Sprintf("must be between 1 and %d", maxRepeat))
	}
	return n, nil
}

// mute sets or toggles mute on output. Toggling reads the current state
// from the device, since it may have changed outside this process.
func (d *Dispatcher) mute(ctx context.Context, output string, action PowerAction) error {
	switch action {
	case ActionOn:
		return d.control.SetMute(ctx, output, true)
	case ActionOff:
		return d.control.SetMute(ctx, output, false)
	}
	info, err := d.control.VolumeInfo(ctx, output)
	if err != nil {
		return err
	}
	if len(info) == 0 {
		return fmt.Errorf("getVolumeInformation: %w", ErrEmptyResult)
	}
	return d.control.SetMute(ctx, output, !info[0].Muted())
}

// snapshot returns the current snapshot or a StaleCacheError.
func (d *Dispatcher) snapshot(command string) (*Snapshot, error) {
	snap := d.cache.Snapshot()
	if snap == nil {
		return nil, &StaleCacheError{Command: command}
	}
	return snap, nil
}

// resolveSoundSetting splits "<TARGET>_<VALUE>" against the sound-domain
// targets. The longest matching target wins; the value is matched against
// its candidates ignoring case.
func resolveSoundSetting(snap *Snapshot, body string) (target, value string, err error) {
	var best *Setting
	for i := range snap.sound {
		s := &snap.sound[i]
		prefix := strings.ToUpper(s.Target) + "_"
		if !strings.HasPrefix(body, prefix) || len(body) == len(prefix) {
			continue
		}
		if best == nil || len(s.Target) > len(best.Target) {
			best = s
		}
	}
	if best == nil {
		t, _, _ := strings.Cut(body, "_")
		return "", "", newValidationError("sound setting", t, "not supported by this device")
	}

	token := body[len(best.Target)+1:]
	cand, ok := best.CandidateFold(token)
	if !ok {
		return "", "", newValidationError(best.Target+" value", token, "not a candidate value")
	}
	return best.Target, cand.Value, nil
}

func (d *Dispatcher) soundSetting(ctx context.Context, c SoundSettingCommand) error {
	snap, err := d.snapshot(c.Name())
	if err != nil {
		return err
	}
	target, value, err := resolveSoundSetting(snap, c.Body)
	if err != nil {
		return err
	}
	if !snap.Validate(target, value) {
		return newValidationError(target+" value", value, "not a candidate value")
	}
	return d.control.SetSoundSetting(ctx, target, value)
}

func (d *Dispatcher) system(ctx context.Context, c SystemCommand) error {
	snap, err := d.snapshot(c.Name())
	if err != nil {
		return err
	}
	target := string(c.Setting)

	var value string
	switch c.Setting {
	case SystemHDMIOutput:
		v, ok := HDMIOutputValue(c.Value)
		if !ok {
			return newValidationError("HDMI output", c.Value, "expected A, B, AB or OFF")
		}
		value = v
	default:
		setting, ok := snap.FindSetting(target)
		if !ok {
			return newValidationError("system setting", target, "not supported by this device")
		}
		cand, ok := setting.CandidateFold(c.Value)
		if !ok {
			return newValidationError(target+" value", c.Value, "not a candidate value")
		}
		value = cand.Value
	}

	if !snap.Validate(target, value) {
		return newValidationError(target+" value", value, "not a candidate value")
	}
	return d.control.SetSoundSetting(ctx, target, value)
}

// findSpeakerControl matches a SPEAKER_ name against the available controls.
func findSpeakerControl(snap *Snapshot, name string) (SpeakerControl, bool) {
	for _, sc := range snap.AvailableSpeakerControls() {
		if strings.EqualFold(SpeakerName(sc.Target), name) {
			return sc, true
		}
	}
	return SpeakerControl{}, false
}

// ClampLevel applies one step in dir to current and clamps to [min, max].
func ClampLevel(current, step, lo, hi float64, dir Direction) float64 {
	next := current + step
	if dir == Down {
		next = current - step
	}
	next = math.Max(lo, math.Min(hi, next))
	return math.Round(next*1e6) / 1e6
}

// formatLevel renders a level with at least one decimal and as many as step
// needs, so 10 with step 0.5 becomes "10.0".
func formatLevel(v, step float64) string {
	decimals := 1
	s := strconv.FormatFloat(step, 'f', -1, 64)
	if _, frac, ok := strings.Cut(s, "."); ok && len(frac) > decimals {
		decimals = len(frac)
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// speakerLevel adjusts a speaker level by one step from the cached value,
// then refreshes the cache because the device may round or clamp
// differently.
func (d *Dispatcher) speakerLevel(ctx context.Context, c SpeakerLevelCommand) error {
	snap, err := d.snapshot(c.Name())
	if err != nil {
		return err
	}
	sc, ok := findSpeakerControl(snap, c.Speaker)
	if !ok {
		return newValidationError("speaker", c.Speaker, "not supported by this device")
	}
	setting, _ := snap.FindSetting(sc.Target)
	current, ok := setting.NumericValue()
	if !ok {
		return newValidationError("speaker", c.Speaker, "current level unknown")
	}

	next := ClampLevel(current, sc.Step, sc.Min, sc.Max, c.Direction)
	if err := d.control.SetSpeakerSetting(ctx, sc.Target, formatLevel(next, sc.Step)); err != nil {
		return err
	}
	if err := d.refresh(ctx); err != nil {
		return fmt.Errorf("refreshing after speaker change: %w", err)
	}
	return nil
}

// zoneOutput is the output URI for zone-scoped calls; the main zone uses
// the device default.
func zoneOutput(zone int) string {
	if zone == MainZone {
		return ""
	}
	return ZoneURI(zone)
}

func (d *Dispatcher) zone(ctx context.Context, c ZoneCommand) error {
	if c.Zone == MainZone && (c.Op == ZoneActivate || c.Op == ZoneDeactivate) {
		return newValidationError("zone", strconv.Itoa(c.Zone), "main zone cannot be activated or deactivated")
	}
	// Zone 1 is always present, so it needs no capability data.
	if c.Zone != MainZone {
		snap, err := d.snapshot(c.Name())
		if err != nil {
			return err
		}
		if !snap.HasZone(c.Zone) {
			return newValidationError("zone", strconv.Itoa(c.Zone), "not present on this device")
		}
	}

	output := zoneOutput(c.Zone)
	switch c.Op {
	case ZoneVolumeUp:
		return d.control.SetVolume(ctx, output, VolumeStepUp)
	case ZoneVolumeDown:
		return d.control.SetVolume(ctx, output, VolumeStepDown)
	case ZoneMuteToggle:
		return d.mute(ctx, output, ActionToggle)
	case ZoneActivate:
		return d.control.SetActiveTerminal(ctx, ZoneURI(c.Zone), true)
	case ZoneDeactivate:
		return d.control.SetActiveTerminal(ctx, ZoneURI(c.Zone), false)
	default:
		return newValidationError("zone operation", string(c.Op), "unknown")
	}
}

func (d *Dispatcher) input(ctx context.Context, c InputCommand) error {
	uri, ok := DecodeSource(c.Token, d.sources())
	if !ok {
		return newValidationError("input", c.Token, "no matching source")
	}
	return d.control.SetPlayContent(ctx, "", uri)
}
