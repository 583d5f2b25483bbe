package catalog

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FITS headers are a sequence of 2880-byte blocks holding 80-byte
// card images, terminated by an END card. Only the primary header is
// read here; the data units are the converter's concern.
const (
	fitsBlockSize = 2880
	fitsCardSize  = 80

	// maxHeaderBlocks caps the scan so a non-FITS file cannot make us
	// read gigabytes looking for an END card.
	maxHeaderBlocks = 1024
)

// Header keys carrying the observation metadata.
const (
	KeyMJD  = "MJD-OBS"
	KeyBand = "ESO INS FILT1 NAME"
)

// Header holds the primary-header cards of a raw exposure, keyed by
// card keyword with quoted string values unquoted.
type Header map[string]string

// ReadHeader scans the primary header of a FITS container.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	defer f.Close()

	h := make(Header)
	block := make([]byte, fitsBlockSize)
	for b := 0; b < maxHeaderBlocks; b++ {
		if _, err := io.ReadFull(f, block); err != nil {
			return nil, fmt.Errorf("read header %s: truncated before END card: %w", path, err)
		}
		for off := 0; off < fitsBlockSize; off += fitsCardSize {
			card := string(block[off : off+fitsCardSize])
			if strings.TrimRight(card, " ") == "END" || strings.HasPrefix(card, "END ") {
				return h, nil
			}
			key, value, ok := parseCard(card)
			if ok {
				h[key] = value
			}
		}
	}
	return nil, fmt.Errorf("read header %s: no END card within %d blocks", path, maxHeaderBlocks)
}

// parseCard splits one 80-byte card image into keyword and value.
// HIERARCH cards carry the full keyword up to the equals sign; plain
// cards keep the keyword in the first eight bytes with "= " at byte 8.
func parseCard(card string) (key, value string, ok bool) {
	if strings.HasPrefix(card, "HIERARCH ") {
		eq := strings.Index(card, "=")
		if eq < 0 {
			return "", "", false
		}
		key = strings.TrimSpace(card[len("HIERARCH "):eq])
		value = parseCardValue(card[eq+1:])
		return key, value, true
	}

	if len(card) < 10 || card[8] != '=' {
		// COMMENT, HISTORY, blank keyword: no value to extract.
		return "", "", false
	}
	key = strings.TrimRight(card[:8], " ")
	if key == "" {
		return "", "", false
	}
	return key, parseCardValue(card[9:]), true
}

// parseCardValue trims the value field, dropping the inline comment
// and unquoting FITS string constants.
func parseCardValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "'") {
		// String constant: ends at the next single quote; doubled
		// quotes inside are escapes.
		var b strings.Builder
		i := 1
		for i < len(raw) {
			if raw[i] == '\'' {
				if i+1 < len(raw) && raw[i+1] == '\'' {
					b.WriteByte('\'')
					i += 2
					continue
				}
				break
			}
			b.WriteByte(raw[i])
			i++
		}
		return strings.TrimRight(b.String(), " ")
	}
	if slash := strings.Index(raw, "/"); slash >= 0 {
		raw = raw[:slash]
	}
	return strings.TrimSpace(raw)
}

// Str returns a header value with surrounding whitespace trimmed.
func (h Header) Str(key string) (string, bool) {
	v, ok := h[key]
	return strings.TrimSpace(v), ok
}

// Float parses a numeric header value.
func (h Header) Float(key string) (float64, error) {
	v, ok := h[key]
	if !ok {
		return 0, fmt.Errorf("key %q missing", key)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("key %q: %w", key, err)
	}
	return f, nil
}

// ExtractObservation pulls the photometric band and the modified
// Julian date out of a raw exposure's primary header. Either key
// missing is a HeaderExtractionError, fatal for this entity only.
func ExtractObservation(path string) (band string, mjd float64, err error) {
	h, readErr := ReadHeader(path)
	if readErr != nil {
		return "", 0, &HeaderExtractionError{Path: path, Key: KeyMJD, Err: readErr}
	}

	mjd, floatErr := h.Float(KeyMJD)
	if floatErr != nil {
		return "", 0, &HeaderExtractionError{Path: path, Key: KeyMJD, Err: floatErr}
	}

	band, ok := h.Str(KeyBand)
	if !ok || band == "" {
		return "", 0, &HeaderExtractionError{Path: path, Key: KeyBand}
	}

	return band, mjd, nil
}
