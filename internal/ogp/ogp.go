// Package ogp builds Imgix URLs for Open Graph preview images. The image is
// rendered by Imgix on first fetch; this package only composes the URL.
package ogp

import (
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/ogpblog/internal/cache"
)

const (
	DefaultDomain    = "your-imgix-domain.imgix.net"
	DefaultBaseImage = "yep/ogp.jpg"
	DefaultCacheSize = 100

	DateLayout = "2006.01.02"

	Width  = 1200
	Height = 630
)

// Tier is the font size and padding applied to the title text.
type Tier struct {
	FontSize int
	Padding  int
}

// TierFor picks the text tier for a title by its length in characters.
// Each bound is inclusive on the lower tier.
func TierFor(title string) Tier {
	n := utf8.RuneCountInString(title)
	switch {
	case n <= 10:
		return Tier{FontSize: 56, Padding: 60}
	case n <= 15:
		return Tier{FontSize: 52, Padding: 60}
	case n <= 20:
		return Tier{FontSize: 48, Padding: 80}
	case n <= 25:
		return Tier{FontSize: 44, Padding: 80}
	default:
		return Tier{FontSize: 40, Padding: 100}
	}
}

type Builder struct {
	domain    string
	baseImage string
	loc       *time.Location
	cache     *cache.FIFO[string, string]
}

type Option func(*Builder)

// WithDomain sets the Imgix source domain. Empty values are ignored.
func WithDomain(domain string) Option {
	return func(b *Builder) {
		if domain != "" {
			b.domain = domain
		}
	}
}

func WithBaseImage(path string) Option {
	return func(b *Builder) {
		if path != "" {
			b.baseImage = path
		}
	}
}

// WithLocation sets the time zone used to print the date overlay.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// WithCache injects the memo cache. Builders sharing a cache must share a
// domain, or they will return each other's URLs.
func WithCache(c *cache.FIFO[string, string]) Option {
	return func(b *Builder) {
		if c != nil {
			b.cache = c
		}
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		domain:    DefaultDomain,
		baseImage: DefaultBaseImage,
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.cache == nil {
		b.cache = cache.NewFIFO[string, string](DefaultCacheSize)
	}
	return b
}

func (b *Builder) Domain() string {
	return b.domain
}

// CacheKey is the memo key for a title and creation time.
func CacheKey(title string, createdAt time.Time) string {
	return title + ":" + createdAt.UTC().Format(time.RFC3339Nano)
}

// URL returns the preview image URL for a post. The result depends only on
// the arguments and the builder settings, and repeated calls are served from
// the cache.
func (b *Builder) URL(title string, createdAt time.Time) string {
	return b.cache.GetOrSet(CacheKey(title, createdAt), func() string {
		return b.build(title, createdAt)
	})
}

func (b *Builder) build(title string, createdAt time.Time) string {
	tier := TierFor(title)

	params := url.Values{}
	params.Set("txt", title)
	params.Set("txt-size", strconv.Itoa(tier.FontSize))
	params.Set("txt-color", "333333")
	params.Set("txt-align", "center,middle")
	params.Set("txt-pad", strconv.Itoa(tier.Padding))
	params.Set("txt-font", "Hiragino Sans W6")
	params.Set("txt-fit", "max")
	params.Set("txt-width", "1000")
	params.Set("txt-line-height", "1.5")
	params.Set("txt-shad", "2")
	params.Set("w", strconv.Itoa(Width))
	params.Set("h", strconv.Itoa(Height))
	params.Set("fit", "crop")
	params.Set("auto", "format")
	params.Set("q", "90")

	params.Set("blend", b.dateOverlay(createdAt))
	params.Set("blend-mode", "normal")
	params.Set("blend-align", "bottom,right")
	params.Set("blend-pad", "40")

	u := url.URL{
		Scheme:   "https",
		Host:     b.domain,
		Path:     "/" + b.baseImage,
		RawQuery: params.Encode(),
	}
	return u.String()
}

// dateOverlay is the Imgix text endpoint URL that renders the creation date.
func (b *Builder) dateOverlay(createdAt time.Time) string {
	params := url.Values{}
	params.Set("txt", FormatDate(createdAt, b.loc))
	params.Set("txt-size", "28")
	params.Set("txt-color", "666666")
	params.Set("txt-font", "Hiragino Sans W3")
	params.Set("txt-pad", "10")
	params.Set("w", "400")
	params.Set("txt-align", "right,bottom")

	u := url.URL{
		Scheme:   "https",
		Host:     b.domain,
		Path:     "/~text",
		RawQuery: params.Encode(),
	}
	return u.String()
}

func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}
