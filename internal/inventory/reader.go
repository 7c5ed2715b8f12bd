package inventory

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/eolscan/internal/core/domain"
)

// maxLineSize bounds a single JSON-lines record.
const maxLineSize = 1 << 20

// Read decodes every record from r. The layout is detected from the first
// non-space byte: '[' means a JSON array, anything else JSON lines.
func Read(r io.Reader) ([]domain.SoftwareRecord, error) {
	br := bufio.NewReader(r)

	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading inventory: %w", err)
	}

	if first == '[' {
		return readArray(br)
	}
	return readLines(br)
}

// ReadFile reads records from path. "-" reads from stdin.
func ReadFile(path string) ([]domain.SoftwareRecord, error) {
	if path == "-" || path == "" {
		return Read(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening inventory: %w", err)
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func readArray(r io.Reader) ([]domain.SoftwareRecord, error) {
	var records []domain.SoftwareRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decoding inventory array: %w", domain.ErrInvalidInput, err)
	}
	return records, nil
}

func readLines(r io.Reader) ([]domain.SoftwareRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []domain.SoftwareRecord
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var rec domain.SoftwareRecord
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidInput, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading inventory: %w", err)
	}
	return records, nil
}

// peekNonSpace skips leading whitespace and returns the next byte without
// consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}
