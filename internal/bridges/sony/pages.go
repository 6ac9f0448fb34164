package sony

import (
	"fmt"
	"strings"
)

// Page layout limits.
const (
	pageColumns         = 4
	maxPageSoundFields  = 4
	maxPageToggles      = 6
	maxPageToggleValues = 2
)

// Page is one screen of the remote UI.
type Page struct {
	ID    string     `json:"page_id"`
	Name  string     `json:"name"`
	Items []PageItem `json:"items"`
}

// PageItem is one icon or text cell on a page grid.
type PageItem struct {
	Type    string `json:"type"`
	Icon    string `json:"icon,omitempty"`
	Text    string `json:"text,omitempty"`
	Command string `json:"command,omitempty"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

func iconItem(icon string, x, y int, cmd string) PageItem {
	return PageItem{Type: "icon", Icon: icon, Command: cmd, X: x, Y: y, Width: 1, Height: 1}
}

func textItem(text string, x, y, width int, cmd string) PageItem {
	return PageItem{Type: "text", Text: text, Command: cmd, X: x, Y: y, Width: width, Height: 1}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Pages groups the command namespace into UI pages. It is a pure function
// of the device name, sources and snapshot.
func Pages(deviceName string, sources []Source, snap *Snapshot) []Page {
	pages := []Page{mainPage(deviceName)}
	if p, ok := inputsPage(sources); ok {
		pages = append(pages, p)
	}
	if snap != nil {
		if p, ok := soundPage(snap); ok {
			pages = append(pages, p)
		}
		if p, ok := speakersPage(snap); ok {
			pages = append(pages, p)
		}
		if p, ok := zonesPage(snap); ok {
			pages = append(pages, p)
		}
	}
	return append(pages, systemPage())
}

func mainPage(deviceName string) Page {
	return Page{ID: "main", Name: "Controls", Items: []PageItem{
		textItem(deviceName, 0, 0, pageColumns, ""),
		iconItem("uc:power-on", 0, 1, CommandPowerOn),
		iconItem("uc:power-off", 1, 1, CommandPowerOff),
		iconItem("uc:volume-up", 0, 2, CommandVolumeUp),
		iconItem("uc:volume-down", 1, 2, CommandVolumeDown),
		iconItem("uc:mute", 2, 2, CommandMuteToggle),
	}}
}

// sourceIcon picks an icon from the source kind or its label.
func sourceIcon(src Source) string {
	switch src.Kind {
	case SourceHDMI:
		return "uc:hdmi"
	case SourceFixed:
		switch src.Token {
		case "TV":
			return "uc:tv"
		case "BLUETOOTH":
			return "uc:bluetooth"
		case "ANALOG":
			return "uc:line-in"
		case "AIRPLAY":
			return "uc:airplay"
		}
		return "uc:input"
	}

	_, name, _ := splitURI(src.URI)
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "game"):
		return "uc:gaming"
	case strings.Contains(name, "bd"), strings.Contains(name, "dvd"):
		return "uc:disc"
	case strings.Contains(name, "sat"), strings.Contains(name, "catv"), strings.Contains(name, "cable"):
		return "uc:satellite"
	case strings.Contains(name, "cd"):
		return "uc:music"
	case strings.Contains(name, "video"):
		return "uc:video"
	default:
		return "uc:input"
	}
}

func inputsPage(sources []Source) (Page, bool) {
	if len(sources) == 0 {
		return Page{}, false
	}
	page := Page{ID: "inputs", Name: "Inputs", Items: []PageItem{textItem("Select Input", 0, 0, pageColumns, "")}}
	row, col := 1, 0
	for _, src := range sources {
		cmd := src.Command()
		if cmd == "" {
			continue
		}
		title := src.Title
		if title == "" {
			title = src.Token
		}
		page.Items = append(page.Items,
			iconItem(sourceIcon(src), col, row, cmd),
			textItem(truncate(title, 12), col, row+1, 1, cmd),
		)
		col++
		if col >= pageColumns {
			col = 0
			row += 2
		}
	}
	return page, true
}

func soundPage(snap *Snapshot) (Page, bool) {
	if len(snap.sound) == 0 {
		return Page{}, false
	}
	page := Page{ID: "sound", Name: "Sound", Items: []PageItem{textItem("Sound Settings", 0, 0, pageColumns, "")}}
	row := 1

	if fields := snap.AvailableSoundFieldOptions(); len(fields) > 0 {
		page.Items = append(page.Items, textItem("Sound Field", 0, row, 2, ""))
		row++
		for col, opt := range fields[:min(len(fields), maxPageSoundFields)] {
			icon := "uc:sound"
			lower := strings.ToLower(opt.Value)
			if strings.Contains(lower, "stereo") {
				icon = "uc:music"
			} else if strings.Contains(lower, "dolby") || strings.Contains(lower, "dts") {
				icon = "uc:speaker"
			}
			cmd := SoundFieldCommand(opt.Value)
			page.Items = append(page.Items,
				iconItem(icon, col, row, cmd),
				textItem(truncate(opt.Title, 8), col, row+1, 1, ""),
			)
		}
		row += 2
	}

	if toggles := snap.AvailableToggleSettings(); len(toggles) > 0 {
		page.Items = append(page.Items, textItem("Settings", 0, row, 2, ""))
		row++
		col := 0
		for _, t := range toggles[:min(len(toggles), maxPageToggles)] {
			for _, v := range t.Values[:min(len(t.Values), maxPageToggleValues)] {
				label := fmt.Sprintf("%s %s", truncate(t.Title, 6), truncate(v, 3))
				page.Items = append(page.Items,
					iconItem("uc:settings", col, row, SoundCommandName(t.Target, v)),
					textItem(label, col, row+1, 1, ""),
				)
				col++
				if col >= pageColumns {
					col = 0
					row += 2
				}
			}
		}
	}
	return page, true
}

func speakersPage(snap *Snapshot) (Page, bool) {
	controls := snap.AvailableSpeakerControls()
	if len(controls) == 0 {
		return Page{}, false
	}
	page := Page{ID: "speakers", Name: "Speakers", Items: []PageItem{textItem("Speaker Levels", 0, 0, pageColumns, "")}}
	row, col := 1, 0
	for _, sc := range controls {
		up, down := SpeakerCommands(sc.Target)
		page.Items = append(page.Items,
			textItem(truncate(sc.Title, 10), col, row, 2, ""),
			iconItem("uc:up", col, row+1, up),
			iconItem("uc:down", col+1, row+1, down),
		)
		col += 2
		if col >= pageColumns {
			col = 0
			row += 2
		}
	}
	return page, true
}

func zonesPage(snap *Snapshot) (Page, bool) {
	if len(snap.zones) <= 1 {
		return Page{}, false
	}
	page := Page{ID: "zones", Name: "Zones", Items: []PageItem{textItem("Multi-Zone Control", 0, 0, pageColumns, "")}}
	row := 1
	for _, zone := range snap.zones {
		name := fmt.Sprintf("Zone %d", zone)
		if zone == MainZone {
			name = "Main Zone"
		}
		page.Items = append(page.Items, textItem(name, 0, row, 2, ""))
		row++
		page.Items = append(page.Items,
			iconItem("uc:volume-up", 0, row, ZoneCommandName(zone, ZoneVolumeUp)),
			iconItem("uc:volume-down", 1, row, ZoneCommandName(zone, ZoneVolumeDown)),
			iconItem("uc:mute", 2, row, ZoneCommandName(zone, ZoneMuteToggle)),
		)
		row++
		if zone > MainZone {
			page.Items = append(page.Items,
				iconItem("uc:power-on", 0, row, ZoneCommandName(zone, ZoneActivate)),
				iconItem("uc:power-off", 1, row, ZoneCommandName(zone, ZoneDeactivate)),
			)
			row++
		}
	}
	return page, true
}

func systemPage() Page {
	return Page{ID: "system", Name: "System", Items: []PageItem{
		textItem("System Settings", 0, 0, pageColumns, ""),
		textItem("Display Dimmer", 0, 1, 2, ""),
		iconItem("uc:brightness-max", 0, 2, CommandDimmerPrefix+"BRIGHT"),
		textItem("Bright", 0, 3, 1, ""),
		iconItem("uc:brightness-medium", 1, 2, CommandDimmerPrefix+"DARK"),
		textItem("Dark", 1, 3, 1, ""),
		iconItem("uc:brightness-off", 2, 2, CommandDimmerPrefix+"OFF"),
		textItem("Off", 2, 3, 1, ""),
		textItem("HDMI Output", 0, 4, 2, ""),
		iconItem("uc:hdmi", 0, 5, CommandHDMIOutputPrefix+"A"),
		textItem("HDMI A", 0, 6, 1, ""),
		iconItem("uc:hdmi", 1, 5, CommandHDMIOutputPrefix+"B"),
		textItem("HDMI B", 1, 6, 1, ""),
		iconItem("uc:hdmi", 2, 5, CommandHDMIOutputPrefix+"AB"),
		textItem("A + B", 2, 6, 1, ""),
		iconItem("uc:close", 3, 5, CommandHDMIOutputPrefix+"OFF"),
		textItem("Off", 3, 6, 1, ""),
	}}
}
