// Package snippet builds the Markdown snippets for videos, external URLs,
// internal links and images, and inserts them into documents.
package snippet

import (
	"fmt"
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/parser"
	"github.com/starford/docsauthor/internal/storage"
)

// MaxAltLength is the longest accepted image alt text, in characters.
const MaxAltLength = 70

// Kind selects the snippet to build.
type Kind string

// Snippet kinds.
const (
	KindVideo Kind = "video"
	KindURL   Kind = "url"
	KindLink  Kind = "link"
	KindImage Kind = "image"
)

// Quick-pick entries offered when the author chooses a link or media type.
var (
	LinkTypes  = []string{"External", "Internal"}
	MediaTypes = []string{"Image", "Video"}
)

// KindFor maps a link or media type label to its snippet kind.
func KindFor(label string) (Kind, bool) {
	switch label {
	case "External":
		return KindURL, true
	case "Internal":
		return KindLink, true
	case "Image":
		return KindImage, true
	case "Video":
		return KindVideo, true
	}
	return "", false
}

var (
	errVideoURL = validation.NewError("validation_video_url",
		"https://channel9.msdn.com or https://www.youtube.com/embed are required prefixes for video URLs")
	errHTTPURL = validation.NewError("validation_http_url",
		"http:// or https:// is required for URLs")

	videoURLRule = validation.By(func(value any) error {
		s, _ := value.(string)
		if s == "" || IsVideoURL(s) {
			return nil
		}
		return errVideoURL
	})
	httpURLRule = validation.By(func(value any) error {
		s, _ := value.(string)
		if s == "" || IsHTTPURL(s) {
			return nil
		}
		return errHTTPURL
	})
)

// IsVideoURL reports whether s is a Channel 9 player URL or a YouTube embed URL.
func IsVideoURL(s string) bool {
	if strings.HasPrefix(s, "https://www.youtube.com/embed") {
		return true
	}
	base, _, _ := strings.Cut(s, "?")
	return strings.HasPrefix(s, "https://channel9.msdn.com") && strings.HasSuffix(base, "player")
}

// IsHTTPURL reports whether s starts with http:// or https://.
func IsHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ValidateVideoURL checks a video URL the way the video snippet does.
func ValidateVideoURL(s string) error {
	return validation.Validate(s, validation.Required, videoURLRule)
}

// ValidateHTTPURL checks an external URL the way the URL snippet does.
func ValidateHTTPURL(s string) error {
	return validation.Validate(s, validation.Required, httpURLRule)
}

// ValidateAlt checks the length of image alt text.
func ValidateAlt(s string) error {
	return validation.Validate(s, validation.RuneLength(0, MaxAltLength))
}

// Request describes one snippet. From and Target are paths relative to the
// repository root.
type Request struct {
	Kind   Kind   `json:"kind"`
	URL    string `json:"url,omitempty"`
	Text   string `json:"text,omitempty"`
	From   string `json:"from,omitempty"`
	Target string `json:"target,omitempty"`
	Alt    string `json:"alt,omitempty"`
}

// Validate validates the request fields required by its kind.
func (r Request) Validate() error {
	local := r.Kind == KindLink || r.Kind == KindImage
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.Required, validation.In(KindVideo, KindURL, KindLink, KindImage)),
		validation.Field(&r.URL,
			validation.When(r.Kind == KindVideo, validation.Required, videoURLRule),
			validation.When(r.Kind == KindURL, validation.Required, httpURLRule)),
		validation.Field(&r.From, validation.When(local, validation.Required)),
		validation.Field(&r.Target, validation.When(local, validation.Required)),
		validation.Field(&r.Alt, validation.RuneLength(0, MaxAltLength)),
	)
}

// Video returns the video embed for url.
func Video(url string) string {
	return "> [!VIDEO " + url + "]"
}

// External returns a link to url labelled text, or the url itself when text
// is empty.
func External(url, text string) string {
	if text == "" {
		text = url
	}
	return "[" + text + "](" + url + ")"
}

// Link returns an internal link.
func Link(target, text string) string {
	return "[" + text + "](" + target + ")"
}

// Image returns an image reference.
func Image(target, alt string) string {
	return "![" + alt + "](" + target + ")"
}

// Build validates req and returns its Markdown. Internal links and images
// are resolved against repo: the From document must exist and the link path
// is relative to its directory.
func Build(repo storage.Provider, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", apperr.Invalid(err)
	}

	switch req.Kind {
	case KindVideo:
		return Video(req.URL), nil
	case KindURL:
		return External(req.URL, req.Text), nil
	}

	if ok, err := repo.Exists(req.From); err != nil {
		return "", err
	} else if !ok {
		return "", fmt.Errorf("%w: %s: cannot accurately resolve path to create link", apperr.ErrNotSaved, req.From)
	}

	image := req.Kind == KindImage
	if !matchesKind(req.Target, image) {
		return "", apperr.Invalid(fmt.Errorf("target %s is not %s", req.Target, kindNoun(image)))
	}
	if ok, err := repo.Exists(req.Target); err != nil {
		return "", err
	} else if !ok {
		return "", fmt.Errorf("target %s: %w", req.Target, apperr.ErrNotFound)
	}

	rel, err := RelativePath(req.From, req.Target)
	if err != nil {
		return "", apperr.Invalid(err)
	}

	if image {
		alt := req.Alt
		if alt == "" {
			alt = path.Base(req.Target)
		}
		return Image(rel, alt), nil
	}

	text := req.Text
	if text == "" {
		text, err = Heading(repo, req.Target)
		if err != nil {
			return "", err
		}
	}
	return Link(rel, text), nil
}

// Heading returns the text of the first H1-H6 heading below the front matter
// of the document at target, or "" if it has none.
func Heading(repo storage.Provider, target string) (string, error) {
	data, err := repo.Read(target)
	if err != nil {
		return "", fmt.Errorf("snippet: %w", err)
	}
	_, body, _ := parser.Split(string(data))
	return parser.FirstHeading(body), nil
}

// RelativePath returns the slash-separated path of target relative to the
// directory of from. Both paths are relative to the repository root.
func RelativePath(from, target string) (string, error) {
	from = path.Clean(strings.ReplaceAll(from, `\`, "/"))
	target = path.Clean(strings.ReplaceAll(target, `\`, "/"))
	if path.IsAbs(from) || path.IsAbs(target) || escapes(from) || escapes(target) {
		return "", fmt.Errorf("paths must be relative to the repository root: %s, %s", from, target)
	}

	fromParts := split(path.Dir(from))
	targetParts := split(target)
	i := 0
	for i < len(fromParts) && i < len(targetParts)-1 && fromParts[i] == targetParts[i] {
		i++
	}
	parts := make([]string, 0, len(fromParts)-i+len(targetParts)-i)
	for range fromParts[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, targetParts[i:]...)
	return strings.Join(parts, "/"), nil
}

func split(p string) []string {
	if p == "." || p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func escapes(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../")
}

func kindNoun(image bool) string {
	if image {
		return "an image"
	}
	return "a Markdown document"
}
