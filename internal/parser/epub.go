package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

// EPUBParser parses ePUB files (a ZIP of XHTML documents ordered by a
// package manifest) into a flat paragraph sequence.
type EPUBParser struct{}

// NewEPUBParser creates a new ePUB parser.
func NewEPUBParser() *EPUBParser {
	return &EPUBParser{}
}

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Manifest struct {
		Items []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// Parse extracts paragraphs from an ePUB archive's spine, in reading
// order. It reads the package manifest to resolve the spine to files and
// strips XHTML markup with a block-element-aware tag stripper rather than
// a full DOM parse.
func (p *EPUBParser) Parse(ctx context.Context, data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("epub: not a valid archive: %w", err)
	}

	rootPath, err := p.findRootfile(zr)
	if err != nil {
		return nil, err
	}

	pkg, err := p.readPackage(zr, rootPath)
	if err != nil {
		return nil, err
	}

	hrefByID := make(map[string]string, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		hrefByID[item.ID] = item.Href
	}

	base := path.Dir(rootPath)
	var paragraphs []string
	for _, ref := range pkg.Spine.ItemRefs {
		href, ok := hrefByID[ref.IDRef]
		if !ok {
			continue
		}
		docPath := path.Join(base, href)

		content, err := readZipFile(zr, docPath)
		if err != nil {
			continue // a missing spine entry shouldn't fail the whole book
		}
		paragraphs = append(paragraphs, extractParagraphs(content)...)
	}

	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("epub: no readable content found")
	}
	return paragraphs, nil
}

func (p *EPUBParser) findRootfile(zr *zip.Reader) (string, error) {
	content, err := readZipFile(zr, "META-INF/container.xml")
	if err != nil {
		return "", fmt.Errorf("epub: missing container.xml: %w", err)
	}

	var container epubContainer
	if err := xml.Unmarshal(content, &container); err != nil {
		return "", fmt.Errorf("epub: invalid container.xml: %w", err)
	}
	if len(container.Rootfiles) == 0 {
		return "", fmt.Errorf("epub: container.xml lists no rootfile")
	}
	return container.Rootfiles[0].FullPath, nil
}

func (p *EPUBParser) readPackage(zr *zip.Reader, rootPath string) (*epubPackage, error) {
	content, err := readZipFile(zr, rootPath)
	if err != nil {
		return nil, fmt.Errorf("epub: missing package document: %w", err)
	}

	var pkg epubPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("epub: invalid package document: %w", err)
	}
	return &pkg, nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("not found: %s", name)
}

var (
	blockTagBreak = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|br)\s*>`)
	anyTag        = regexp.MustCompile(`<[^>]*>`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// extractParagraphs strips XHTML markup from content, treating the close
// of any block-level element as a paragraph boundary.
func extractParagraphs(content []byte) []string {
	text := blockTagBreak.ReplaceAllString(string(content), "\n")
	text = anyTag.ReplaceAllString(text, "")
	text = xmlUnescape(text)

	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		line = whitespace.ReplaceAllString(strings.TrimSpace(line), " ")
		if line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return paragraphs
}

func xmlUnescape(s string) string {
	replacer := strings.NewReplacer(
		"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'",
	)
	return replacer.Replace(s)
}

// SupportedFormats returns the formats this parser supports.
func (p *EPUBParser) SupportedFormats() []string {
	return []string{"epub"}
}
