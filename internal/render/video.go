package render

import (
	"fmt"
	htmlstd "html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

type videoEmbed struct {
	Platform string
	EmbedURL string
}

var (
	videoLinePattern = regexp.MustCompile(`^\s*<?((?:https?://)?[^\s<>]+)>?\s*$`)
	listItemPattern  = regexp.MustCompile(`^(?:[-*+]|\d+\.)\s+`)
	timecodePattern  = regexp.MustCompile(`(?i)(\d+)(h|m|s)`)
	vimeoIDPattern   = regexp.MustCompile(`^\d+$`)
)

// embedVideos replaces lines holding nothing but a YouTube or Vimeo link
// with an iframe. Fenced and indented code, quotes and list items are left
// alone.
func embedVideos(source string) string {
	if strings.TrimSpace(source) == "" {
		return source
	}
	lines := strings.Split(source, "\n")
	fence := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if marker := fenceMarker(trimmed); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(trimmed, fence):
				fence = ""
			}
			continue
		}
		if fence != "" || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, ">") || listItemPattern.MatchString(trimmed) {
			continue
		}
		match := videoLinePattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		embed, ok := parseVideoURL(match[1])
		if !ok {
			continue
		}
		lines[i] = embed.html()
	}
	return strings.Join(lines, "\n")
}

func fenceMarker(line string) string {
	switch {
	case strings.HasPrefix(line, "```"):
		return "```"
	case strings.HasPrefix(line, "~~~"):
		return "~~~"
	default:
		return ""
	}
}

func parseVideoURL(raw string) (videoEmbed, bool) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return videoEmbed{}, false
	}
	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "youtu.be" || hostWithin(host, "youtube.com"):
		return youtubeEmbed(parsed, host)
	case hostWithin(host, "vimeo.com"):
		return vimeoEmbed(parsed)
	default:
		return videoEmbed{}, false
	}
}

func youtubeEmbed(u *url.URL, host string) (videoEmbed, bool) {
	path := strings.Trim(u.Path, "/")
	var id string
	if host == "youtu.be" {
		id = path
	} else {
		switch {
		case path == "watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(path, "shorts/"), strings.HasPrefix(path, "embed/"), strings.HasPrefix(path, "live/"):
			id = path[strings.Index(path, "/")+1:]
		}
	}
	if i := strings.Index(id, "/"); i >= 0 {
		id = id[:i]
	}
	if id == "" {
		return videoEmbed{}, false
	}

	params := url.Values{}
	params.Set("rel", "0")
	params.Set("modestbranding", "1")
	params.Set("playsinline", "1")
	if start := startSeconds(u); start > 0 {
		params.Set("start", strconv.Itoa(start))
	}
	return videoEmbed{
		Platform: "youtube",
		EmbedURL: "https://www.youtube-nocookie.com/embed/" + url.PathEscape(id) + "?" + params.Encode(),
	}, true
}

func vimeoEmbed(u *url.URL) (videoEmbed, bool) {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	id := segments[len(segments)-1]
	if !vimeoIDPattern.MatchString(id) {
		return videoEmbed{}, false
	}
	return videoEmbed{
		Platform: "vimeo",
		EmbedURL: "https://player.vimeo.com/video/" + id + "?dnt=1",
	}, true
}

// startSeconds reads ?t= or ?start= as either plain seconds or 1h2m3s.
func startSeconds(u *url.URL) int {
	value := u.Query().Get("start")
	if value == "" {
		value = u.Query().Get("t")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return max(seconds, 0)
	}
	total := 0
	for _, match := range timecodePattern.FindAllStringSubmatch(value, -1) {
		n, _ := strconv.Atoi(match[1])
		switch strings.ToLower(match[2]) {
		case "h":
			total += n * 3600
		case "m":
			total += n * 60
		case "s":
			total += n
		}
	}
	return total
}

func (v videoEmbed) html() string {
	return fmt.Sprintf(
		`<div class="video-embed" data-video-embed="true" data-video-platform="%s">`+
			`<iframe src="%s" title="Video player" loading="lazy" allow="encrypted-media; picture-in-picture; web-share" allowfullscreen frameborder="0" referrerpolicy="strict-origin-when-cross-origin"></iframe>`+
			`</div>`,
		htmlstd.EscapeString(v.Platform),
		htmlstd.EscapeString(v.EmbedURL),
	)
}

func hostWithin(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
