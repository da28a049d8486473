package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ParseFrontMatter splits content into its front matter, body and front
// matter dialect. Content without a front matter block is returned whole as
// the body with a nil map and an empty format.
func ParseFrontMatter(content []byte) (map[string]interface{}, string, string, error) {
	str := normalizeLineEndings(string(content))
	str = strings.TrimPrefix(str, "\ufeff")

	switch {
	case strings.HasPrefix(str, "---\n"):
		raw, body, ok := splitDelimited(str, "---")
		if !ok {
			return nil, "", "", fmt.Errorf("%w: unterminated yaml block", ErrInvalidFrontMatter)
		}
		var fm map[string]interface{}
		if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
			return nil, "", "", fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
		}
		return sanitizeFrontMatter(fm), body, "yaml", nil
	case strings.HasPrefix(str, "+++\n"):
		raw, body, ok := splitDelimited(str, "+++")
		if !ok {
			return nil, "", "", fmt.Errorf("%w: unterminated toml block", ErrInvalidFrontMatter)
		}
		var fm map[string]interface{}
		if err := toml.Unmarshal([]byte(raw), &fm); err != nil {
			return nil, "", "", fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
		}
		return sanitizeFrontMatter(fm), body, "toml", nil
	case strings.HasPrefix(str, "{"):
		dec := json.NewDecoder(strings.NewReader(str))
		var fm map[string]interface{}
		if err := dec.Decode(&fm); err != nil {
			return nil, "", "", fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
		}
		body := strings.TrimSpace(str[dec.InputOffset():])
		return sanitizeFrontMatter(fm), body, "json", nil
	}

	return nil, strings.TrimSpace(str), "", nil
}

// splitDelimited cuts a block opened by delim on the first line and closed by
// a line holding only delim.
func splitDelimited(str, delim string) (string, string, bool) {
	rest := str[len(delim)+1:]
	if strings.HasPrefix(rest, delim+"\n") || rest == delim {
		return "", strings.TrimSpace(strings.TrimPrefix(rest, delim)), true
	}
	idx := strings.Index(rest, "\n"+delim+"\n")
	if idx < 0 {
		if strings.HasSuffix(rest, "\n"+delim) {
			return rest[:len(rest)-len(delim)-1], "", true
		}
		return "", "", false
	}
	return rest[:idx+1], strings.TrimSpace(rest[idx+len(delim)+2:]), true
}

// ConstructFileContent writes fm in the given dialect followed by body.
func ConstructFileContent(fm map[string]interface{}, body string, format string) ([]byte, error) {
	normalizedFM := sanitizeFrontMatter(fm)
	if normalizedFM == nil {
		normalizedFM = map[string]interface{}{}
	}

	var buf bytes.Buffer
	switch format {
	case "yaml":
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(normalizedFM); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("---\n")
	case "toml":
		buf.WriteString("+++\n")
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(normalizedFM); err != nil {
			return nil, err
		}
		buf.WriteString("+++\n")
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(normalizedFM); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

func sanitizeFrontMatter(fm map[string]interface{}) map[string]interface{} {
	if fm == nil {
		return nil
	}
	sanitized := make(map[string]interface{}, len(fm))
	for k, v := range fm {
		sanitized[k] = sanitizeFrontMatterValue(v)
	}
	return sanitized
}

func sanitizeFrontMatterValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return sanitizeFrontMatter(v)
	case map[interface{}]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, inner := range v {
			normalized[fmt.Sprint(key)] = sanitizeFrontMatterValue(inner)
		}
		return normalized
	case []interface{}:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = sanitizeFrontMatterValue(v[i])
		}
		return slice
	default:
		return v
	}
}

// metaString returns fm[key] when it holds a string.
func metaString(fm map[string]interface{}, key string) string {
	if fm == nil {
		return ""
	}
	if s, ok := fm[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func normalizeLineEndings(input string) string {
	return strings.ReplaceAll(input, "\r\n", "\n")
}
