package scanning

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/webp" // Android camera uploads
)

const supportedFormats = "JPEG, PNG, GIF, WebP, HEIC, HEIF, PDF"

// heicBrands are the ftyp major brands written by phone cameras
var heicBrands = map[string]bool{"heic": true, "heif": true, "mif1": true, "msf1": true}

// preparePNG normalizes the MIME type and converts the label to PNG when
// needed. An empty content type is treated as JPEG, the camera default.
func preparePNG(imageData []byte, contentType string) ([]byte, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if mimeType == "application/pdf" {
		out, err := pdfToImage(imageData)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return out, nil
	}
	if mimeType == "image/png" && !isHEICFormat(imageData) {
		return imageData, nil
	}

	out, err := imageToPNG(imageData, mimeType)
	if err != nil {
		return nil, fmt.Errorf("converting image to PNG: %w", err)
	}
	return out, nil
}

// pdfToImage renders page one of a printable label; labels never span pages
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	page, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return encodePNG(page)
}

func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	img, err := decodePhoto(imageData, mimeType)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

// decodePhoto picks the HEIC decoder for iPhone uploads and the registered
// stdlib decoders for everything else
func decodePhoto(data []byte, mimeType string) (image.Image, error) {
	r := bytes.NewReader(data)
	if isHEICFormat(data) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(r)
	switch {
	case errors.Is(err, image.ErrFormat):
		return nil, fmt.Errorf("unsupported image format (supported: %s): %w", supportedFormats, err)
	case err != nil:
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return out.Bytes(), nil
}

// isHEICFormat looks for an ftyp box with a HEIC-family brand at offset 4
func isHEICFormat(data []byte) bool {
	return len(data) >= 12 && string(data[4:8]) == "ftyp" && heicBrands[string(data[8:12])]
}

func isHEICMimeType(mimeType string) bool {
	m := strings.ToLower(mimeType)
	return strings.Contains(m, "heic") || strings.Contains(m, "heif")
}

// splitLines breaks a transcription into trimmed, non-empty lines
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
