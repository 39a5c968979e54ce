package monitor

import "regexp"

// Tag names the display emphasis for a highlighted fragment.
type Tag string

const (
	TagVersion Tag = "version"
	TagNetwork Tag = "network"
	TagAddress Tag = "address"
)

// Highlight recognizes one kind of notable serial output and the
// capture groups worth emphasizing.
type Highlight struct {
	Name    string
	Pattern *regexp.Regexp
	Groups  int
	Tag     Tag
}

// Highlights lists the device output fragments the monitor calls out:
// firmware versions, the access point credentials a user needs to
// join, and addresses and ports for connecting a throttle.
var Highlights = []Highlight{
	{"Version", regexp.MustCompile(`^\<(iDCC-EX\sV-.*)\>$`), 1, TagVersion},
	{"WiFi AP Details (ESP32)", regexp.MustCompile(`^\<\*\sWifi\sAP\sSSID\s(.+?)\sPASS\s(.+?)\s\*\>$`), 2, TagNetwork},
	{"WiFi AP Details (ESP8266)", regexp.MustCompile(`^AT\+CWSAP_CUR="(.+?)","(.+?)".*$`), 2, TagNetwork},
	{"WiFi AP IP", regexp.MustCompile(`<\*\sWifi\sAP\sIP\s(\d*\.\d*\.\d*\.\d*)\s\*\>`), 1, TagAddress},
	{"Port (ESP32)", regexp.MustCompile(`.*port\s(\d*)\s\*\>`), 1, TagAddress},
	{"Port (ESP8266)", regexp.MustCompile(`^AT\+CIPSERVER=\d*,(\d*).*$`), 1, TagAddress},
	{"WiFi Firmware", regexp.MustCompile(`^AT\sversion\:(.+?)$`), 1, TagVersion},
	{"WiFi ST Details", regexp.MustCompile(`^AT\+CWJAP_CUR="(.+?)","(.+?)".*$`), 2, TagNetwork},
	{"WiFi ST IP", regexp.MustCompile(`"(\d*\.\d*\.\d*\.\d*)"`), 1, TagAddress},
}

// Span marks one highlighted byte range within a line.
type Span struct {
	Start int
	End   int
	Tag   Tag
}

// FindSpans returns the highlighted ranges of a line. When patterns
// overlap the earlier entry in Highlights keeps the range.
func FindSpans(line string) []Span {
	var spans []Span
	for _, h := range Highlights {
		idx := h.Pattern.FindStringSubmatchIndex(line)
		if idx == nil || len(idx)/2-1 != h.Groups {
			continue
		}
		for g := 1; g <= h.Groups; g++ {
			start, end := idx[2*g], idx[2*g+1]
			if start < 0 || overlaps(spans, start, end) {
				continue
			}
			spans = append(spans, Span{Start: start, End: end, Tag: h.Tag})
		}
	}
	return spans
}

func overlaps(spans []Span, start, end int) bool {
	for _, s := range spans {
		if start < s.End && end > s.Start {
			return true
		}
	}
	return false
}
