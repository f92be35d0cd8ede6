// Package content determines the natural size of displayed content without
// decoding it for display.
package content

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/net/html/charset"
)

var (
	ErrUnknownFormat = errors.New("unrecognized content format")
	ErrNoSize        = errors.New("content has no usable size")
)

// PlaceholderSize is used when a viewer has no asset.
const PlaceholderSize = 800

// Info is the natural size of a piece of content.
type Info struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Format string  `json:"format"`
}

// Placeholder returns the size of the built-in placeholder content.
func Placeholder() Info {
	return Info{Width: PlaceholderSize, Height: PlaceholderSize, Format: "placeholder"}
}

// Inspect reads just enough of r to report the content's natural size.
// Raster formats go through image.DecodeConfig; SVG documents are read
// from their root element.
func Inspect(r io.Reader) (Info, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(512)
	if looksLikeXML(head) {
		return inspectSVG(br)
	}

	cfg, format, err := image.DecodeConfig(br)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Info{}, ErrUnknownFormat
		}
		return Info{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, ErrNoSize
	}
	return Info{Width: float64(cfg.Width), Height: float64(cfg.Height), Format: format}, nil
}

func looksLikeXML(head []byte) bool {
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.TrimLeft(head, " \t\r\n")
	return bytes.HasPrefix(head, []byte("<"))
}

func inspectSVG(r io.Reader) (Info, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return Info{}, ErrUnknownFormat
			}
			return Info{}, fmt.Errorf("parse svg: %w", err)
		}
		se, ok := t.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "svg" {
			return Info{}, ErrUnknownFormat
		}
		return svgSize(se.Attr)
	}
}

// svgSize prefers explicit width/height and falls back to the viewBox.
func svgSize(attrs []xml.Attr) (Info, error) {
	var width, height, vbW, vbH float64
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "width":
			width = parseLength(attr.Value)
		case "height":
			height = parseLength(attr.Value)
		case "viewBox":
			fields := strings.FieldsFunc(attr.Value, func(r rune) bool {
				return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
			})
			if len(fields) == 4 {
				vbW, _ = strconv.ParseFloat(fields[2], 64)
				vbH, _ = strconv.ParseFloat(fields[3], 64)
			}
		}
	}
	if width <= 0 {
		width = vbW
	}
	if height <= 0 {
		height = vbH
	}
	if width <= 0 || height <= 0 {
		return Info{}, ErrNoSize
	}
	return Info{Width: width, Height: height, Format: "svg"}, nil
}

// parseLength accepts plain numbers and px values; relative units yield 0.
func parseLength(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
