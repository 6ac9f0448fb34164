package sony

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SourceKind classifies a source URI.
type SourceKind string

// Source kinds.
const (
	SourceHDMI       SourceKind = "hdmi"
	SourceFixed      SourceKind = "fixed"
	SourceLabeled    SourceKind = "labeled"
	SourceZoneOutput SourceKind = "zone_output"
	SourceUnknown    SourceKind = "unknown"
)

// fixedSourceTokens maps well-known input names to their command tokens.
var fixedSourceTokens = map[string]string{
	"tv":      "TV",
	"btAudio": "BLUETOOTH",
	"line":    "ANALOG",
	"airPlay": "AIRPLAY",
	"usb":     "USB",
}

// Source is one input or output endpoint.
type Source struct {
	URI   string     `json:"uri"`
	Title string     `json:"title"`
	Kind  SourceKind `json:"kind"`
	Port  int        `json:"port,omitempty"`
	Token string     `json:"token,omitempty"`
}

// Command returns the INPUT_ command selecting the source, or "" for
// sources that cannot be selected.
func (s Source) Command() string {
	if s.Token == "" {
		return ""
	}
	return CommandInputPrefix + s.Token
}

// splitURI splits "scheme:name?query" into its parts.
func splitURI(uri string) (scheme, name string, query url.Values) {
	scheme, rest, ok := strings.Cut(uri, ":")
	if !ok {
		return "", uri, url.Values{}
	}
	name, rawQuery, _ := strings.Cut(rest, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	return scheme, name, query
}

// ClassifySource derives kind, port and command token from a URI.
func ClassifySource(uri, title string) Source {
	src := Source{URI: uri, Title: title, Kind: SourceUnknown}
	scheme, name, query := splitURI(uri)

	switch scheme {
	case "extOutput":
		src.Kind = SourceZoneOutput
		return src
	case SchemeExtInput:
	default:
		return src
	}

	if name == "hdmi" {
		if port, err := strconv.Atoi(query.Get("port")); err == nil && port > 0 {
			src.Kind = SourceHDMI
			src.Port = port
			src.Token = fmt.Sprintf("HDMI%d", port)
			return src
		}
	}
	if token, ok := fixedSourceTokens[name]; ok {
		src.Kind = SourceFixed
		src.Token = token
		return src
	}
	if name == "" {
		return src
	}
	src.Kind = SourceLabeled
	src.Token = labeledToken(name)
	return src
}

// EncodeSource returns the command token for uri ("HDMI1", "BD_DVD"), or
// false when the URI is not a selectable input.
func EncodeSource(uri string) (string, bool) {
	src := ClassifySource(uri, "")
	return src.Token, src.Token != ""
}

func labeledToken(name string) string {
	r := strings.NewReplacer("-", "_", " ", "_")
	return strings.ToUpper(r.Replace(name))
}

// candidateURI reconstructs the URI a token was derived from, assuming the
// lower-case hyphenated naming the device uses for labeled inputs.
func candidateURI(token string) string {
	if strings.HasPrefix(token, "HDMI") {
		if port, err := strconv.Atoi(strings.TrimPrefix(token, "HDMI")); err == nil && port > 0 {
			return fmt.Sprintf("extInput:hdmi?port=%d", port)
		}
	}
	for name, t := range fixedSourceTokens {
		if t == token {
			return SchemeExtInput + ":" + name
		}
	}
	return SchemeExtInput + ":" + strings.ToLower(strings.ReplaceAll(token, "_", "-"))
}

// DecodeSource maps a token back to the URI of one of the known sources.
// The reconstructed URI is matched literally first; otherwise the first
// source whose encoding equals the token wins, which covers labels with
// mixed case or spaces.
func DecodeSource(token string, sources []Source) (string, bool) {
	token = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(token)), CommandInputPrefix)
	if token == "" {
		return "", false
	}
	want := candidateURI(token)
	for _, s := range sources {
		if s.URI == want {
			return s.URI, true
		}
	}
	for _, s := range sources {
		if enc, ok := EncodeSource(s.URI); ok && enc == token {
			return s.URI, true
		}
	}
	return "", false
}

// SourceLister is the subset of Client used for source discovery.
type SourceLister interface {
	SourceList(ctx context.Context, scheme string) ([]SourceEntry, error)
	ExternalTerminals(ctx context.Context) ([]Terminal, error)
}

// DiscoverSources merges getSourceList and the external terminal status
// into one list deduplicated by URI. Source-list entries win and keep their
// order; terminal inputs not already listed follow. A failure of one call is
// logged and tolerated; an error is returned only if both fail.
func DiscoverSources(ctx context.Context, lister SourceLister, logger Logger) ([]Source, error) {
	logger = loggerOrNoop(logger)

	var (
		listed    []SourceEntry
		terminals []Terminal
		listErr   error
		termErr   error
	)

	var g errgroup.Group
	g.Go(func() error {
		listed, listErr = lister.SourceList(ctx, SchemeExtInput)
		return nil
	})
	g.Go(func() error {
		terminals, termErr = lister.ExternalTerminals(ctx)
		return nil
	})
	//nolint:errcheck // Goroutines report through listErr/termErr
	g.Wait()

	if listErr != nil {
		logger.Warn("could not get source list", "error", listErr)
	}
	if termErr != nil {
		logger.Debug("could not get terminal status", "error", termErr)
	}
	if listErr != nil && termErr != nil {
		return []Source{}, fmt.Errorf("discovering sources: %w", errors.Join(listErr, termErr))
	}

	sources := make([]Source, 0, len(listed)+len(terminals))
	seen := make(map[string]struct{}, len(listed)+len(terminals))
	for _, e := range listed {
		if e.Source == "" {
			continue
		}
		if _, dup := seen[e.Source]; dup {
			continue
		}
		seen[e.Source] = struct{}{}
		sources = append(sources, ClassifySource(e.Source, e.Title))
	}
	for _, t := range terminals {
		if !strings.HasPrefix(t.URI, SchemeExtInput+":") {
			continue
		}
		if _, dup := seen[t.URI]; dup {
			continue
		}
		seen[t.URI] = struct{}{}
		sources = append(sources, ClassifySource(t.URI, t.Title))
		logger.Debug("added labeled input from terminal status", "uri", t.URI, "title", t.Title)
	}

	logger.Info("sources discovered", "count", len(sources))
	return sources, nil
}
