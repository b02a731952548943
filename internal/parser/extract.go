package parser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"regexp"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
)

// extractDOCX runs two passes over a DOCX file: docconv for the plain text
// used by the segmenter, and a direct walk of the package for embedded
// images. Images are materialized in document order so the segmenter can
// consume them positionally.
func (p *Parser) extractDOCX(ctx context.Context, docPath string) (*Document, error) {
	f, err := os.Open(docPath)
	if err != nil {
		return nil, &ExtractError{Format: "docx", Err: err}
	}
	defer f.Close()

	text, _, err := docconv.ConvertDocx(f)
	if err != nil {
		return nil, &ExtractError{Format: "docx", Err: err}
	}

	images, err := p.harvestDocxImages(ctx, docPath)
	if err != nil {
		return nil, &ExtractError{Format: "docx", Err: err}
	}

	return &Document{
		RawText:         text,
		ExtractedImages: images,
	}, nil
}

// extractPDF extracts plain text page by page. Pages that fail to decode are
// skipped. PDF image extraction is not supported; ExtractedImages is always
// empty for this format.
func (p *Parser) extractPDF(_ context.Context, docPath string) (*Document, error) {
	f, r, err := pdf.Open(docPath)
	if err != nil {
		return nil, &ExtractError{Format: "pdf", Err: err}
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Debug("skipping unreadable PDF page", "page", i, "error", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return &Document{
		RawText:         sb.String(),
		ExtractedImages: []string{},
	}, nil
}

var embedRefRe = regexp.MustCompile(`r:embed="([^"]+)"`)

// relationships mirrors word/_rels/document.xml.rels.
type relationships struct {
	Rels []relationship `xml:"Relationship"`
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// harvestDocxImages opens the DOCX package as a zip archive, resolves image
// relationships, and materializes each image referenced from the document
// body in the order it appears. A failed materialization yields an empty URL
// entry; positions in the returned slice always match document order.
func (p *Parser) harvestDocxImages(ctx context.Context, docPath string) ([]string, error) {
	zr, err := zip.OpenReader(docPath)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	defer zr.Close()

	parts := make(map[string]*zip.File, len(zr.File))
	for _, zf := range zr.File {
		parts[zf.Name] = zf
	}

	targets, err := imageTargets(parts["word/_rels/document.xml.rels"])
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return []string{}, nil
	}

	docXML, err := readZipPart(parts["word/document.xml"])
	if err != nil {
		return nil, fmt.Errorf("read document body: %w", err)
	}

	urls := []string{}
	for _, m := range embedRefRe.FindAllStringSubmatch(string(docXML), -1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target, ok := targets[m[1]]
		if !ok {
			continue
		}
		data, err := readZipPart(parts[path.Join("word", target)])
		if err != nil {
			slog.Warn("unreadable embedded image", "target", target, "error", err)
			urls = append(urls, "")
			continue
		}
		contentType := mime.TypeByExtension(path.Ext(target))
		urls = append(urls, p.images.Materialize(data, contentType))
	}
	return urls, nil
}

// imageTargets maps relationship IDs to media part targets.
func imageTargets(relsFile *zip.File) (map[string]string, error) {
	if relsFile == nil {
		return nil, nil
	}
	data, err := readZipPart(relsFile)
	if err != nil {
		return nil, fmt.Errorf("read relationships: %w", err)
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parse relationships: %w", err)
	}
	targets := make(map[string]string)
	for _, rel := range rels.Rels {
		if strings.HasSuffix(rel.Type, "/image") {
			targets[rel.ID] = rel.Target
		}
	}
	return targets, nil
}

func readZipPart(zf *zip.File) ([]byte, error) {
	if zf == nil {
		return nil, fmt.Errorf("missing package part")
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
