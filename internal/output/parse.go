package output

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	lqerrors "github.com/fakeyudi/luaqa/internal/errors"
)

// Parser deserializes a results file.
type Parser interface {
	Parse(data []byte) (*Results, error)
}

// ParserFor picks the parser by content: Markdown when the version sentinel
// is present, JSON otherwise.
func ParserFor(data []byte) Parser {
	if bytes.Contains(data, []byte(versionSentinel)) {
		return &MarkdownParser{}
	}
	return &JSONParser{}
}

// JSONParser parses JSON-encoded Results.
type JSONParser struct{}

func (JSONParser) Parse(data []byte) (*Results, error) {
	var r Results
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse JSON results: %w", err)
	}
	return &r, nil
}

// MarkdownParser extracts the embedded payload of a Markdown results file.
type MarkdownParser struct{}

func (MarkdownParser) Parse(data []byte) (*Results, error) {
	content := string(data)
	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("not a valid results file: missing version sentinel")
	}

	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid results file: missing data payload")
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid results file: malformed data payload")
	}

	jsonBytes, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("not a valid results file: corrupted base64 payload: %w", err)
	}
	var r Results
	if err := json.Unmarshal(jsonBytes, &r); err != nil {
		return nil, fmt.Errorf("not a valid results file: failed to parse embedded JSON: %w", err)
	}
	return &r, nil
}

// AppendStepSummary appends the Markdown summary of r to the file at path.
func AppendStepSummary(path string, r *Results) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return lqerrors.WithStackTrace(err)
	}
	if _, err := f.WriteString(Summary(r)); err != nil {
		f.Close()
		return lqerrors.WithStackTrace(err)
	}
	return lqerrors.WithStackTrace(f.Close())
}
